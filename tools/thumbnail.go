package tools

import (
	"bytes"
	"io"

	"github.com/disintegration/imaging"
)

func Thumbnail(r io.Reader, ratio float64, format imaging.Format) (io.Reader, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	width := max(int(float64(b.Dx())*ratio), 1)
	height := max(int(float64(b.Dy())*ratio), 1)
	thumbnail := imaging.Thumbnail(img, width, height, imaging.Lanczos)
	if thumbnail == nil {
		return nil, io.ErrUnexpectedEOF
	}
	var buf bytes.Buffer
	err = imaging.Encode(&buf, thumbnail, format)
	if err != nil {
		return nil, err
	}
	return &buf, nil
}

// ThumbnailFormat picks the imaging encoder for an image type, falling back to JPEG.
func ThumbnailFormat(t ImageType) (imaging.Format, string) {
	switch t {
	case ImageTypePNG:
		return imaging.PNG, "png"
	case ImageTypeGIF:
		return imaging.GIF, "gif"
	default:
		return imaging.JPEG, "jpeg"
	}
}
