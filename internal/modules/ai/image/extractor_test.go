package image

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/reusedev/chat-image/internal/modules/errs"
	"github.com/stretchr/testify/require"
)

func TestExtractImage(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		want  DataURL
		found bool
	}{
		{
			name:  "top level content string",
			body:  `{"choices":[{"message":{"content":"data:image/png;base64,iVBORw0KGgo="}}]}`,
			want:  "data:image/png;base64,iVBORw0KGgo=",
			found: true,
		},
		{
			name:  "provider images ignores top level",
			body:  `{"providerResponse":{"choices":[{"message":{"images":[{"type":"image_url","image_url":{"url":"data:image/jpeg;base64,/9j/4AAQ"}}]}}]},"choices":[{"message":{"content":"data:image/png;base64,iVBORw0KGgo="}}]}`,
			want:  "data:image/jpeg;base64,/9j/4AAQ",
			found: true,
		},
		{
			name:  "content parts skip text",
			body:  `{"choices":[{"message":{"content":[{"type":"text","text":"hi"},{"type":"image_url","image_url":{"url":"data:image/gif;base64,R0lGODdh"}}]}}]}`,
			want:  "data:image/gif;base64,R0lGODdh",
			found: true,
		},
		{
			name:  "content part of type image",
			body:  `{"choices":[{"message":{"content":[{"type":"image","image":{"data":"data:image/webp;base64,UklGRg=="}}]}}]}`,
			want:  "data:image/webp;base64,UklGRg==",
			found: true,
		},
		{
			name:  "non object content parts are skipped",
			body:  `{"choices":[{"message":{"content":["data:image/png;base64,AAAA",42,null,{"type":"image_url","image_url":{"url":"data:image/png;base64,iVBORw0KGgo="}}]}}]}`,
			want:  "data:image/png;base64,iVBORw0KGgo=",
			found: true,
		},
		{
			name:  "first matching part wins",
			body:  `{"choices":[{"message":{"content":[{"type":"image","image":{"data":"data:image/png;base64,Zmlyc3Q="}},{"type":"image_url","image_url":{"url":"data:image/png;base64,c2Vjb25k"}}]}}]}`,
			want:  "data:image/png;base64,Zmlyc3Q=",
			found: true,
		},
		{
			name:  "images wins over content",
			body:  `{"choices":[{"message":{"images":[{"type":"image_url","image_url":{"url":"data:image/png;base64,aW1hZ2Vz"}}],"content":"data:image/png;base64,Y29udGVudA=="}}]}`,
			want:  "data:image/png;base64,aW1hZ2Vz",
			found: true,
		},
		{
			name:  "malformed first image falls through to content",
			body:  `{"choices":[{"message":{"images":[{"type":"input_image","image_url":{"url":"data:image/png;base64,aW1hZ2Vz"}}],"content":"data:image/png;base64,Y29udGVudA=="}}]}`,
			want:  "data:image/png;base64,Y29udGVudA==",
			found: true,
		},
		{
			name:  "only the first image is inspected",
			body:  `{"choices":[{"message":{"images":[{"type":"image_url","image_url":{"url":"https://example.com/a.png"}},{"type":"image_url","image_url":{"url":"data:image/png;base64,c2Vjb25k"}}]}}]}`,
			found: false,
		},
		{
			name:  "non object first image falls through",
			body:  `{"choices":[{"message":{"images":["data:image/png;base64,c3Ry",{"type":"image_url","image_url":{"url":"data:image/png;base64,c2Vjb25k"}}],"content":"data:image/png;base64,Y29udGVudA=="}}]}`,
			want:  "data:image/png;base64,Y29udGVudA==",
			found: true,
		},
		{
			name:  "provider without image falls back to top level",
			body:  `{"providerResponse":{"choices":[{"message":{"content":"no image here"}}]},"choices":[{"message":{"content":"data:image/png;base64,iVBORw0KGgo="}}]}`,
			want:  "data:image/png;base64,iVBORw0KGgo=",
			found: true,
		},
		{
			name:  "provider message not an object",
			body:  `{"providerResponse":{"choices":[{"message":"data:image/png;base64,AAAA"}]},"choices":[{"message":{"content":"data:image/png;base64,iVBORw0KGgo="}}]}`,
			want:  "data:image/png;base64,iVBORw0KGgo=",
			found: true,
		},
		{
			name:  "content without prefix",
			body:  `{"choices":[{"message":{"content":"here is your image: data:image/png;base64,iVBORw0KGgo="}}]}`,
			found: false,
		},
		{
			name:  "markdown image is not matched",
			body:  `{"choices":[{"message":{"content":"![img](data:image/png;base64,iVBORw0KGgo=)"}}]}`,
			found: false,
		},
		{
			name:  "url is not a string",
			body:  `{"choices":[{"message":{"images":[{"type":"image_url","image_url":{"url":123}}],"content":[{"type":"image_url","image_url":"data:image/png;base64,AAAA"}]}}]}`,
			found: false,
		},
		{
			name:  "empty choices",
			body:  `{"choices":[]}`,
			found: false,
		},
		{
			name:  "neither shape",
			body:  `{"error":{"message":"rate limited"}}`,
			found: false,
		},
		{
			name:  "top level array",
			body:  `[{"choices":[{"message":{"content":"data:image/png;base64,AAAA"}}]}]`,
			found: false,
		},
		{
			name:  "null content",
			body:  `{"choices":[{"message":{"content":null,"images":[]}}]}`,
			found: false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp, err := ParseResponse([]byte(c.body))
			require.NoError(t, err)
			got, ok := ExtractImage(resp)
			require.Equal(t, c.found, ok)
			require.Equal(t, c.want, got)
		})
	}
}

func TestExtractImageProviderPriority(t *testing.T) {
	// the provider url is returned even if it later proves unusable
	body := `{"providerResponse":{"choices":[{"message":{"content":"data:image/png;base64,@@@"}}]},"choices":[{"message":{"content":"data:image/png;base64,iVBORw0KGgo="}}]}`
	url, err := ExtractImageFromBody([]byte(body))
	require.NoError(t, err)
	require.Equal(t, DataURL("data:image/png;base64,@@@"), url)
}

func TestParseResponse(t *testing.T) {
	t.Run("not json", func(t *testing.T) {
		_, err := ParseResponse([]byte("<html>bad gateway</html>"))
		require.ErrorIs(t, err, ErrNotJSON)
		_, err = ExtractImageFromBody(nil)
		require.ErrorIs(t, err, ErrNotJSON)
	})

	t.Run("shapes", func(t *testing.T) {
		shapes := map[string]Shape{
			`{}`:                           ShapeNone,
			`{"choices":[{"message":{}}]}`: ShapeTopLevel,
			`{"providerResponse":{"choices":[{"message":{}}]}}`:                                ShapeProvider,
			`{"providerResponse":{"choices":[{"message":{}}]},"choices":[{"message":{}}]}`:     ShapeBoth,
			`{"providerResponse":{"choices":[{"message":[]}]},"choices":[{"message":"text"}]}`: ShapeNone,
		}
		for body, want := range shapes {
			resp, err := ParseResponse([]byte(body))
			require.NoError(t, err)
			require.Equal(t, want, resp.Shape(), body)
		}
		require.Equal(t, ShapeNone, (*ChatBody)(nil).Shape())
	})

	t.Run("content variants", func(t *testing.T) {
		resp, err := ParseResponse([]byte(`{"choices":[{"message":{"content":[{"type":"text","text":"hi"},"raw",{"type":"image","image":{"data":"d"}}]}}]}`))
		require.NoError(t, err)
		require.Equal(t, PartsContent{{Type: "text"}, {Type: "image", ImageData: "d"}}, resp.TopLevel.Content)

		resp, err = ParseResponse([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
		require.NoError(t, err)
		require.Equal(t, TextContent("hello"), resp.TopLevel.Content)

		resp, err = ParseResponse([]byte(`{"choices":[{"message":{"content":7}}]}`))
		require.NoError(t, err)
		require.Equal(t, NoContent{}, resp.TopLevel.Content)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		body := []byte(`{"choices":[{"message":{"content":"data:image/png;base64,iVBORw0KGgo="}}]}`)
		before := string(body)
		_, err := ExtractImageFromBody(body)
		require.NoError(t, err)
		require.Equal(t, before, string(body))
	})
}

func TestResponseFromValue(t *testing.T) {
	var tree map[string]any
	body := `{"providerResponse":{"choices":[{"message":{"images":[{"type":"image_url","image_url":{"url":"data:image/jpeg;base64,/9j/4AAQ"}}]}}]}}`
	require.NoError(t, jsoniter.Unmarshal([]byte(body), &tree))

	resp, err := ResponseFromValue(tree)
	require.NoError(t, err)
	url, ok := ExtractImage(resp)
	require.True(t, ok)
	require.Equal(t, DataURL("data:image/jpeg;base64,/9j/4AAQ"), url)
	require.Contains(t, tree, "providerResponse")
}

func TestExtractImageFromBodyNoImage(t *testing.T) {
	_, err := ExtractImageFromBody([]byte(`{"choices":[{"message":{"content":"sorry, I can't draw that"}}]}`))
	require.ErrorIs(t, err, errs.NoImageFound)
}

func TestExtractFromMessageNil(t *testing.T) {
	url, ok := ExtractFromMessage(nil)
	require.False(t, ok)
	require.Empty(t, url)
	_, ok = ExtractImage(nil)
	require.False(t, ok)
}
