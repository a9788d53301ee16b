package image

import (
	"bytes"
	"encoding/base64"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/reusedev/chat-image/internal/consts"
	"github.com/reusedev/chat-image/tools"
)

// ChatRequest asks a chat completions endpoint for an image. With Images set
// it is an edit: the prompt and every input image go into a content array.
type ChatRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images [][]byte `json:"-"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatBody struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities"`
}

func (c *ChatRequest) Kind() consts.ImageKind {
	if len(c.Images) > 0 {
		return consts.ImageKindEdit
	}
	return consts.ImageKindGenerate
}

func (c *ChatRequest) Body() ([]byte, error) {
	var content any = c.Prompt
	if len(c.Images) > 0 {
		parts := []contentPart{{Type: consts.ContentTypeText, Text: c.Prompt}}
		for _, img := range c.Images {
			parts = append(parts, contentPart{
				Type:     consts.ContentTypeImageURL,
				ImageURL: &imageURL{URL: EncodeDataURL(img).String()},
			})
		}
		content = parts
	}
	return jsoniter.Marshal(chatBody{
		Model:      c.Model,
		Messages:   []chatMessage{{Role: "user", Content: content}},
		Modalities: []string{consts.ModalityImage.String(), consts.ModalityText.String()},
	})
}

func (c *ChatRequest) BodyContentType() (io.Reader, string, error) {
	data, err := c.Body()
	if err != nil {
		return nil, "", err
	}
	return bytes.NewBuffer(data), "application/json", nil
}

func (c *ChatRequest) Path() string {
	return consts.ChatCompletionsPath
}

func (c *ChatRequest) InitResponse(desc string) Response {
	return &BaseResponse{
		TokenDesc: desc,
		Model:     c.Model,
	}
}

// EncodeDataURL sniffs the image format, defaulting to png.
func EncodeDataURL(img []byte) DataURL {
	format := tools.DetectImageType(img)
	if format == tools.ImageTypeUnknown {
		format = tools.ImageTypePNG
	}
	return DataURL("data:image/" + format.String() + ";base64," + base64.StdEncoding.EncodeToString(img))
}
