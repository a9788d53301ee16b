package response

import (
	"time"

	"github.com/jinzhu/copier"
	jsoniter "github.com/json-iterator/go"
	"github.com/reusedev/chat-image/internal/modules/model"
	"github.com/reusedev/chat-image/tools"
)

type Image struct {
	Id            int       `json:"id"`
	Kind          string    `json:"kind"`
	Prompt        string    `json:"prompt"`
	Path          string    `json:"path"`
	ThumbNailPath string    `json:"thumbnail_path,omitempty"`
	Format        string    `json:"format"`
	MimeType      string    `json:"mime_type"`
	ByteSize      int       `json:"byte_size"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	ModelName     string    `json:"model_name"`
	URL           string    `json:"url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewImage(record model.Image) (*Image, error) {
	ret := &Image{}
	if err := copier.Copy(ret, &record); err != nil {
		return nil, err
	}
	ret.MimeType = tools.ImageTypeByFormat(record.Format).MIME()
	return ret, nil
}

func (g *Image) Marsh() (string, error) {
	return jsoniter.MarshalToString(g)
}

func UnmarshalImage(data string) (*Image, error) {
	var result Image
	err := jsoniter.Unmarshal([]byte(data), &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
