package request

import (
	"fmt"
	"mime/multipart"
	"strings"
)

const maxPromptLength = 5000

func validPrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt must not be empty")
	}
	if len(prompt) > maxPromptLength {
		return fmt.Errorf("prompt longer than %d bytes", maxPromptLength)
	}
	return nil
}

type GenerateImage struct {
	Prompt string `json:"prompt" form:"prompt"`
	Model  string `json:"model" form:"model"`
}

func (g *GenerateImage) Valid() error {
	return validPrompt(g.Prompt)
}

type EditImage struct {
	Prompt string                  `form:"prompt"`
	Model  string                  `form:"model"`
	Files  []*multipart.FileHeader `form:"image"` // 可多张
	URLs   []string                `form:"url"`   // 在线图片, 与 image 二选一或混用
}

func (e *EditImage) Valid() error {
	if err := validPrompt(e.Prompt); err != nil {
		return err
	}
	if len(e.Files) == 0 && len(e.URLs) == 0 {
		return fmt.Errorf("must fill image or url")
	}
	for _, u := range e.URLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("invalid url: %s", u)
		}
	}
	return nil
}

type GetImage struct {
	ID        int  `form:"id"`
	ThumbNail bool `form:"thumbnail"`
}

func (g *GetImage) CacheKey() string {
	return fmt.Sprintf("image_get_%d", g.ID)
}

func (g *GetImage) Valid() error {
	if g.ID <= 0 {
		return fmt.Errorf("invalid ID: %d, must be greater than 0", g.ID)
	}
	return nil
}
