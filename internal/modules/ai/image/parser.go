package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reusedev/chat-image/internal/modules/logs"
	"github.com/reusedev/chat-image/tools"
)

type Parser interface {
	Parse(resp *http.Response, response Response) error
}

type GenericParser struct {
	strategy DataURLParseStrategy
}

func NewGenericParser(strategy DataURLParseStrategy) *GenericParser {
	return &GenericParser{strategy: strategy}
}

func NewChatParser() *GenericParser {
	return NewGenericParser(&ChatDataURLStrategy{})
}

// Parse only returns an error when the body cannot be read. Upstream failures
// end up in response.GetError().
func (g *GenericParser) Parse(resp *http.Response, response Response) error {
	if resp.StatusCode != http.StatusOK {
		respBody, err := readWithTimeout(resp.Body, 90*time.Second)
		if err != nil {
			return err
		}
		response.SetBasicResponse(resp.StatusCode, string(respBody))
		response.SetError(DetectError(resp.StatusCode, string(respBody), nil))
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	response.SetBasicResponse(resp.StatusCode, string(body))
	url, err := g.strategy.ExtractDataURL(body)
	if err != nil {
		logs.Logger.Warn().
			Err(err).
			Str("task_id", response.GetTaskID()).
			Str("token_desc", response.GetTokenDesc()).
			Str("model", response.GetModel()).
			Int("status_code", resp.StatusCode).
			Int64("req_consume_ms", response.ReqConsumeMs()).
			Str("body", truncate(string(body), 2000)).
			Msg("image resp error")
		response.SetError(DetectError(resp.StatusCode, string(body), err))
		return nil
	}
	response.SetDataURL(url)
	return nil
}

// readWithTimeout guards against upstreams that keep an error body open for minutes.
func readWithTimeout(r io.Reader, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	type result struct {
		data []byte
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(r)
		resultCh <- result{data: data, err: err}
	}()
	select {
	case res := <-resultCh:
		return res.data, res.err
	case <-ctx.Done():
		return nil, nil
	}
}

var (
	PromptError     = errors.New("the image service rejected the prompt")
	StatusCodeError = errors.New("http status code is not 200")
	// UnknownModelError means no request order entry serves the requested model.
	UnknownModelError = errors.New("model is not configured")
)

var promptRejections = []string{
	"content that is not allowed by our safety system",
	"content_policy_violation",
	"PROHIBITED_CONTENT",
	"violates our usage policies",
}

// DetectError classifies a failed attempt. extractErr is the extraction
// failure for 200 responses and nil otherwise.
func DetectError(statusCode int, body string, extractErr error) error {
	for _, key := range promptRejections {
		if strings.Contains(body, key) {
			return PromptError
		}
	}
	if statusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", StatusCodeError, statusCode)
	}
	return extractErr
}

// ShouldTryNext reports whether the next entry of the request order is worth trying.
func ShouldTryNext(response Response) bool {
	return !errors.Is(response.GetError(), PromptError)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return tools.Truncate(s, n) + "..."
}
