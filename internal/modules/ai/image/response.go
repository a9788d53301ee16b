package image

import "time"

type Response interface {
	GetModel() string
	GetTokenDesc() string
	GetStatusCode() int
	GetRespBody() string
	ReqConsumeMs() int64
	GetTaskID() string
	Succeed() bool
	GetDataURL() DataURL
	GetError() error // is nil if Succeed() return true

	SetBasicResponse(statusCode int, respBody string)
	SetReqAt(reqAt time.Time)
	SetRespAt(respAt time.Time)
	SetDataURL(url DataURL)
	SetError(err error)
	SetTaskID(taskID string)
}

type BaseResponse struct {
	TokenDesc  string    `json:"token_desc"`
	Model      string    `json:"model"`
	StatusCode int       `json:"status_code"`
	RespBody   string    `json:"resp_body"`
	ReqAt      time.Time `json:"req_at"`
	RespAt     time.Time `json:"resp_at"`
	DataURL    DataURL   `json:"-"`
	Error      error     `json:"error,omitempty"`
	TaskID     string    `json:"task_id"`
}

func (r *BaseResponse) GetTokenDesc() string { return r.TokenDesc }
func (r *BaseResponse) GetModel() string     { return r.Model }
func (r *BaseResponse) GetStatusCode() int   { return r.StatusCode }
func (r *BaseResponse) GetRespBody() string  { return r.RespBody }
func (r *BaseResponse) GetTaskID() string    { return r.TaskID }
func (r *BaseResponse) GetDataURL() DataURL  { return r.DataURL }
func (r *BaseResponse) GetError() error      { return r.Error }
func (r *BaseResponse) Succeed() bool        { return r.DataURL != "" && r.Error == nil }
func (r *BaseResponse) ReqConsumeMs() int64  { return r.RespAt.Sub(r.ReqAt).Milliseconds() }

func (r *BaseResponse) SetBasicResponse(statusCode int, respBody string) {
	r.StatusCode = statusCode
	r.RespBody = respBody
}
func (r *BaseResponse) SetReqAt(reqAt time.Time)   { r.ReqAt = reqAt }
func (r *BaseResponse) SetRespAt(respAt time.Time) { r.RespAt = respAt }
func (r *BaseResponse) SetDataURL(url DataURL)     { r.DataURL = url }
func (r *BaseResponse) SetError(err error)         { r.Error = err }
func (r *BaseResponse) SetTaskID(taskID string)    { r.TaskID = taskID }
