package tools

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/webp"
)

func ConvertAndCompressToJPEG(srcData []byte, quality int) ([]byte, error) {
	imageType := DetectImageType(srcData)
	var img image.Image
	var err error
	switch imageType {
	case ImageTypePNG:
		img, err = png.Decode(bytes.NewReader(srcData))
	case ImageTypeJPEG:
		img, err = jpeg.Decode(bytes.NewReader(srcData))
	case ImageTypeWEBP:
		img, err = webp.Decode(bytes.NewReader(srcData))
	default:
		return nil, fmt.Errorf("unsupported image type: %s", imageType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	options := jpeg.Options{
		Quality: quality,
	}
	ret := new(bytes.Buffer)
	err = jpeg.Encode(ret, img, &options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return ret.Bytes(), nil
}

// Dimensions returns 0, 0 when the bytes are not a decodable image.
func Dimensions(data []byte) (int, int) {
	var cfg image.Config
	var err error
	switch DetectImageType(data) {
	case ImageTypePNG:
		cfg, err = png.DecodeConfig(bytes.NewReader(data))
	case ImageTypeJPEG:
		cfg, err = jpeg.DecodeConfig(bytes.NewReader(data))
	case ImageTypeWEBP:
		cfg, err = webp.DecodeConfig(bytes.NewReader(data))
	default:
		cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
	}
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
