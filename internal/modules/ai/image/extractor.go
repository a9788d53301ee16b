package image

import (
	"errors"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/reusedev/chat-image/internal/consts"
	"github.com/reusedev/chat-image/internal/modules/errs"
)

var ErrNotJSON = errors.New("response body is not json")

// DataURL is an image embedded as data:image/<format>;base64,<payload>.
type DataURL string

func (d DataURL) String() string {
	return string(d)
}

func isDataURL(s string) bool {
	return strings.HasPrefix(s, consts.DataURLPrefix)
}

type Shape int

const (
	ShapeNone Shape = iota
	ShapeProvider
	ShapeTopLevel
	ShapeBoth
)

func (s Shape) String() string {
	switch s {
	case ShapeProvider:
		return "provider"
	case ShapeTopLevel:
		return "top_level"
	case ShapeBoth:
		return "both"
	default:
		return "none"
	}
}

// ChatBody is the part of a chat completion body that can carry an image.
// Provider is providerResponse.choices[0].message, TopLevel is choices[0].message;
// either is nil when that path is missing or is not an object.
type ChatBody struct {
	Provider *Message
	TopLevel *Message
}

func (r *ChatBody) Shape() Shape {
	switch {
	case r == nil:
		return ShapeNone
	case r.Provider != nil && r.TopLevel != nil:
		return ShapeBoth
	case r.Provider != nil:
		return ShapeProvider
	case r.TopLevel != nil:
		return ShapeTopLevel
	default:
		return ShapeNone
	}
}

type Message struct {
	Images  []ImageItem
	Content Content
}

// ImageItem keeps every element of message.images in order. Elements that are
// not objects decode to the zero value so that index 0 stays index 0.
type ImageItem struct {
	Type string
	URL  string // image_url.url
}

// Content is one of NoContent, TextContent or PartsContent.
type Content interface {
	content()
}

type NoContent struct{}

type TextContent string

// PartsContent holds the object elements of a content array; other elements are dropped.
type PartsContent []ContentPart

func (NoContent) content()    {}
func (TextContent) content()  {}
func (PartsContent) content() {}

type ContentPart struct {
	Type      string
	ImageURL  string // image_url.url
	ImageData string // image.data
}

// ParseResponse decodes only what extraction needs. Missing or mistyped fields
// never fail the parse; a body that is not json does.
func ParseResponse(body []byte) (*ChatBody, error) {
	if !jsoniter.Valid(body) {
		return nil, ErrNotJSON
	}
	root := jsoniter.Get(body)
	return &ChatBody{
		Provider: messageFrom(root.Get("providerResponse", "choices", 0, "message")),
		TopLevel: messageFrom(root.Get("choices", 0, "message")),
	}, nil
}

// ResponseFromValue accepts an already decoded tree such as map[string]any.
func ResponseFromValue(v any) (*ChatBody, error) {
	data, err := jsoniter.Marshal(v)
	if err != nil {
		return nil, err
	}
	return ParseResponse(data)
}

func messageFrom(a jsoniter.Any) *Message {
	if a.ValueType() != jsoniter.ObjectValue {
		return nil
	}
	msg := &Message{Content: NoContent{}}

	images := a.Get("images")
	if images.ValueType() == jsoniter.ArrayValue {
		msg.Images = make([]ImageItem, images.Size())
		for i := range msg.Images {
			el := images.Get(i)
			if el.ValueType() != jsoniter.ObjectValue {
				continue
			}
			msg.Images[i] = ImageItem{
				Type: stringAt(el, "type"),
				URL:  stringAt(el, "image_url", "url"),
			}
		}
	}

	content := a.Get("content")
	switch content.ValueType() {
	case jsoniter.StringValue:
		msg.Content = TextContent(content.ToString())
	case jsoniter.ArrayValue:
		parts := make(PartsContent, 0, content.Size())
		for i := 0; i < content.Size(); i++ {
			el := content.Get(i)
			if el.ValueType() != jsoniter.ObjectValue {
				continue
			}
			parts = append(parts, ContentPart{
				Type:      stringAt(el, "type"),
				ImageURL:  stringAt(el, "image_url", "url"),
				ImageData: stringAt(el, "image", "data"),
			})
		}
		msg.Content = parts
	}
	return msg
}

func stringAt(a jsoniter.Any, path ...interface{}) string {
	v := a.Get(path...)
	if v.ValueType() != jsoniter.StringValue {
		return ""
	}
	return v.ToString()
}

// ExtractImage returns the first image data url, looking at the provider
// message first. When the provider message yields a url the top level one is
// never consulted.
func ExtractImage(resp *ChatBody) (DataURL, bool) {
	if resp == nil {
		return "", false
	}
	if url, ok := ExtractFromMessage(resp.Provider); ok {
		return url, true
	}
	return ExtractFromMessage(resp.TopLevel)
}

// ExtractFromMessage checks images[0] only, then the content string or the
// content parts in order.
func ExtractFromMessage(msg *Message) (DataURL, bool) {
	if msg == nil {
		return "", false
	}
	if len(msg.Images) > 0 {
		first := msg.Images[0]
		// any other first element falls through to content
		if first.Type == consts.ContentTypeImageURL && isDataURL(first.URL) {
			return DataURL(first.URL), true
		}
	}
	switch c := msg.Content.(type) {
	case TextContent:
		if isDataURL(string(c)) {
			return DataURL(c), true
		}
	case PartsContent:
		for _, part := range c {
			switch {
			case part.Type == consts.ContentTypeImageURL && isDataURL(part.ImageURL):
				return DataURL(part.ImageURL), true
			case part.Type == consts.ContentTypeImage && isDataURL(part.ImageData):
				return DataURL(part.ImageData), true
			}
		}
	}
	return "", false
}

func ExtractImageFromBody(body []byte) (DataURL, error) {
	resp, err := ParseResponse(body)
	if err != nil {
		return "", err
	}
	url, ok := ExtractImage(resp)
	if !ok {
		return "", errs.NoImageFound
	}
	return url, nil
}
