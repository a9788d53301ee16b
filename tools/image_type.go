package tools

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type ImageType string

const (
	ImageTypePNG     ImageType = "png"
	ImageTypeJPEG    ImageType = "jpeg"
	ImageTypeWEBP    ImageType = "webp"
	ImageTypeGIF     ImageType = "gif"
	ImageTypeUnknown ImageType = "unknown"
)

func (i ImageType) String() string {
	return string(i)
}

// MIME returns image/<type>, or application/octet-stream for unknown data.
func (i ImageType) MIME() string {
	if i == ImageTypeUnknown {
		return "application/octet-stream"
	}
	return "image/" + string(i)
}

func DetectImageType(data []byte) ImageType {
	m := mimetype.Detect(data)
	switch {
	case m.Is("image/png"):
		return ImageTypePNG
	case m.Is("image/jpeg"):
		return ImageTypeJPEG
	case m.Is("image/webp"):
		return ImageTypeWEBP
	case m.Is("image/gif"):
		return ImageTypeGIF
	default:
		return ImageTypeUnknown
	}
}

// ImageTypeByFormat maps a data url format token (png, jpg, JPEG...) to an ImageType.
func ImageTypeByFormat(format string) ImageType {
	switch strings.ToLower(format) {
	case "png":
		return ImageTypePNG
	case "jpg", "jpeg":
		return ImageTypeJPEG
	case "webp":
		return ImageTypeWEBP
	case "gif":
		return ImageTypeGIF
	default:
		return ImageTypeUnknown
	}
}
