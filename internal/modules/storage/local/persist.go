package local

import (
	"encoding/base64"
	"fmt"
	"os"
	"regexp"

	"github.com/reusedev/chat-image/internal/modules/errs"
)

var dataURLPattern = regexp.MustCompile(`^data:image/([A-Za-z0-9]+);base64,(.+)$`)

// PersistResult describes a written image. The zero value means nothing was written.
type PersistResult struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	ByteSize int    `json:"byte_size"`
}

func (p PersistResult) Succeed() bool {
	return p.Path != ""
}

// ParseDataURL splits a data:image/<format>;base64,<payload> url and decodes the
// payload. The format token is returned verbatim.
func ParseDataURL(dataURL string) (string, []byte, error) {
	match := dataURLPattern.FindStringSubmatch(dataURL)
	if match == nil {
		return "", nil, errs.InvalidFormat
	}
	payload, err := base64.StdEncoding.DecodeString(match[2])
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", errs.DecodeFailed, err)
	}
	return match[1], payload, nil
}

// Persist decodes dataURL and writes the bytes to destPath. Nothing touches the
// filesystem unless decoding succeeded, and the parent directory must exist.
func Persist(dataURL string, destPath string) (PersistResult, error) {
	format, payload, err := ParseDataURL(dataURL)
	if err != nil {
		return PersistResult{}, err
	}
	if err := writeFile(destPath, payload); err != nil {
		return PersistResult{}, fmt.Errorf("%w: %w", errs.WriteFailed, err)
	}
	return PersistResult{
		Path:     destPath,
		Format:   format,
		ByteSize: len(payload),
	}, nil
}

func writeFile(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	_, err = file.Write(data)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return err
}

// FormatOf returns the format token of a well formed data url without decoding it.
func FormatOf(dataURL string) (string, error) {
	match := dataURLPattern.FindStringSubmatch(dataURL)
	if match == nil {
		return "", errs.InvalidFormat
	}
	return match[1], nil
}
