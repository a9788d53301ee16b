package tools

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/reusedev/chat-image/internal/modules/http_client"
)

// MaxOnlineImageSize caps images fetched for edits.
const MaxOnlineImageSize = 20 << 20

var ErrImageTooLarge = fmt.Errorf("online image larger than %d bytes", MaxOnlineImageSize)

// GetOnlineImage downloads url and returns the body with the file name from
// Content-Disposition, if any.
func GetOnlineImage(ctx context.Context, url string) ([]byte, string, error) {
	client := http_client.New()
	req, err := client.NewRequest(http.MethodGet, url, http_client.WithContext(ctx))
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image, status code: %d", resp.StatusCode)
	}
	if resp.ContentLength > MaxOnlineImageSize {
		return nil, "", ErrImageTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxOnlineImageSize+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > MaxOnlineImageSize {
		return nil, "", ErrImageTooLarge
	}
	var fName string
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		fName = params["filename"]
	}
	return data, fName, nil
}
