package image

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/reusedev/chat-image/config"
	"github.com/reusedev/chat-image/internal/modules/errs"
	"github.com/reusedev/chat-image/internal/modules/http_client"
	"github.com/reusedev/chat-image/internal/modules/logs"
	"github.com/reusedev/chat-image/tools"
)

type Token struct {
	Token string
	Desc  string
}

type SyncRequester struct {
	ctx     context.Context
	baseURL string
	timeout time.Duration
	token   Token
	Request *ChatRequest
	Parser  Parser
	TaskID  string
}

func NewRequester(ctx context.Context, baseURL string, timeout time.Duration, token Token, request *ChatRequest, parser Parser) *SyncRequester {
	return &SyncRequester{
		ctx:     ctx,
		baseURL: baseURL,
		timeout: timeout,
		token:   token,
		Request: request,
		Parser:  parser,
	}
}

func (r *SyncRequester) SetTaskID(taskID string) *SyncRequester {
	r.TaskID = taskID
	return r
}

func (r *SyncRequester) Do() Response {
	ret := r.Request.InitResponse(r.token.Desc)
	ret.SetTaskID(r.TaskID)

	client := http_client.NewWithTimeout(r.timeout)
	body, contentType, err := r.Request.BodyContentType()
	if err != nil {
		ret.SetError(err)
		return ret
	}
	req, err := client.NewRequest(
		http.MethodPost,
		tools.FullURL(r.baseURL, r.Request.Path()),
		http_client.WithHeader("Authorization", "Bearer "+r.token.Token),
		http_client.WithHeader("Content-Type", contentType),
		http_client.WithBody(body),
		http_client.WithContext(r.ctx),
	)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	reqAt := time.Now()
	resp, err := client.Do(req)
	respAt := time.Now()
	ret.SetReqAt(reqAt)
	ret.SetRespAt(respAt)
	if err != nil {
		ret.SetError(err)
		return ret
	}
	defer resp.Body.Close()
	logs.Logger.Info().
		Str("task_id", r.TaskID).
		Str("token_desc", r.token.Desc).
		Str("model", r.Request.Model).
		Str("kind", r.Request.Kind().String()).
		Str("path", r.Request.Path()).
		Int("status_code", resp.StatusCode).
		Dur("req_consume_ms", respAt.Sub(reqAt)).
		Msg("image request")
	err = r.Parser.Parse(resp, ret)
	if err != nil {
		ret.SetError(err)
	}
	return ret
}

// Client walks the configured request order until one attempt yields an image.
type Client struct {
	BaseURL string
	Timeout time.Duration
	Order   []config.Request
	Parser  Parser
}

func NewClient(cfg config.API) *Client {
	return &Client{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.TimeoutDuration(),
		Order:   cfg.RequestOrder,
		Parser:  NewChatParser(),
	}
}

// Do returns every attempt made, the last one being the successful one if any.
// A request with a Model only uses order entries for that model.
func (c *Client) Do(ctx context.Context, taskID string, request ChatRequest) []Response {
	if request.Model != "" && !c.Supports(request.Model) {
		unknown := request.InitResponse("")
		unknown.SetTaskID(taskID)
		unknown.SetError(fmt.Errorf("%w: %s", UnknownModelError, request.Model))
		return []Response{unknown}
	}
	ret := make([]Response, 0)
	for _, order := range c.Order {
		if request.Model != "" && order.Model != request.Model {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		content := request
		content.Model = order.Model
		requester := NewRequester(ctx, c.BaseURL, c.Timeout, Token{Token: order.Token, Desc: order.Desc}, &content, c.Parser).
			SetTaskID(taskID)
		response := requester.Do()
		ret = append(ret, response)
		if response.Succeed() {
			break
		}
		logs.Logger.Warn().Err(response.GetError()).
			Str("task_id", taskID).
			Str("token_desc", order.Desc).
			Str("model", order.Model).
			Msg("image attempt failed")
		if !ShouldTryNext(response) {
			break
		}
	}
	return ret
}

// Supports reports whether some request order entry uses model.
func (c *Client) Supports(model string) bool {
	for _, order := range c.Order {
		if order.Model == model {
			return true
		}
	}
	return false
}

// Last picks the successful response out of Do's result, or the error of the
// final attempt.
func Last(responses []Response) (Response, error) {
	if len(responses) == 0 {
		return nil, errs.NoImageFound
	}
	last := responses[len(responses)-1]
	if last.Succeed() {
		return last, nil
	}
	if err := last.GetError(); err != nil {
		return last, err
	}
	return last, errs.NoImageFound
}
