package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/chat-image/internal/modules/ai/image"
	"github.com/reusedev/chat-image/internal/modules/cache"
	"github.com/reusedev/chat-image/internal/modules/errs"
	"github.com/reusedev/chat-image/internal/modules/logs"
	"github.com/reusedev/chat-image/internal/modules/model"
	"github.com/reusedev/chat-image/internal/modules/pipeline"
	"github.com/reusedev/chat-image/internal/service/http/handler/request"
	"github.com/reusedev/chat-image/internal/service/http/handler/response"
	"github.com/reusedev/chat-image/tools"
	"gorm.io/gorm"
)

type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

const imageCacheTTL = 5 * time.Minute

type ImageFinder func(id int) (model.Image, error)

type URLSigner interface {
	URL(ctx context.Context, key string, expire time.Duration) (string, error)
}

type ImageHandler struct {
	runner     Runner
	find       ImageFinder
	cache      *cache.Manager[string]
	signer     URLSigner
	urlExpires time.Duration
}

func NewImageHandler(runner Runner, find ImageFinder) *ImageHandler {
	return &ImageHandler{
		runner: runner,
		find:   find,
		cache:  cache.ImageCacheManager(),
	}
}

// WithSigner makes records stored in object storage carry a presigned url.
func (h *ImageHandler) WithSigner(signer URLSigner, expire time.Duration) *ImageHandler {
	h.signer = signer
	h.urlExpires = expire
	return h
}

func (h *ImageHandler) Generate(c *gin.Context) {
	form := request.GenerateImage{}
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := form.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	h.run(c, pipeline.Request{Prompt: form.Prompt, Model: form.Model})
}

func (h *ImageHandler) Edit(c *gin.Context) {
	form := request.EditImage{}
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := form.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	inputs := make([][]byte, 0, len(form.Files)+len(form.URLs))
	for _, f := range form.Files {
		b, err := readFormFile(f)
		if err != nil {
			logs.Logger.Err(err).Str("file", f.Filename).Msg("read upload image")
			c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage("read image failed"))
			return
		}
		inputs = append(inputs, b)
	}
	for _, u := range form.URLs {
		b, _, err := tools.GetOnlineImage(c.Request.Context(), u)
		if err != nil {
			logs.Logger.Err(err).Str("url", u).Msg("download input image")
			c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage("download image failed: "+u))
			return
		}
		inputs = append(inputs, b)
	}
	h.run(c, pipeline.Request{Prompt: form.Prompt, Model: form.Model, Images: inputs})
}

func (h *ImageHandler) run(c *gin.Context, req pipeline.Request) {
	result, err := h.runner.Run(c.Request.Context(), req)
	if err != nil {
		logs.Logger.Err(err).Str("kind", errs.KindOf(err).String()).Msg("run image pipeline")
		status, body := errorResponse(err)
		c.JSON(status, body)
		return
	}
	data, err := h.imageResponse(c.Request.Context(), result.Image)
	if err != nil {
		logs.Logger.Err(err).Str("task_id", result.TaskID).Msg("build image response")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(data))
}

func errorResponse(err error) (int, gin.H) {
	switch {
	case errors.Is(err, image.UnknownModelError):
		return http.StatusBadRequest, response.ParamErrorWithMessage(err.Error())
	case errors.Is(err, image.PromptError):
		return http.StatusBadRequest, response.PromptError
	case errors.Is(err, errs.NoImageFound):
		return http.StatusBadGateway, response.NoImageError
	case errors.Is(err, errs.InvalidFormat), errors.Is(err, errs.DecodeFailed):
		return http.StatusBadGateway, response.InvalidImageError
	case errors.Is(err, image.StatusCodeError):
		return http.StatusBadGateway, response.UpstreamError
	default:
		return http.StatusInternalServerError, response.InternalError
	}
}

func (h *ImageHandler) GetImage(c *gin.Context) {
	form := request.GetImage{}
	if err := c.ShouldBindQuery(&form); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := form.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	cached, err := h.cache.GetValue(form.CacheKey())
	if err != nil {
		logs.Logger.Warn().Err(err).Str("key", form.CacheKey()).Msg("get image cache")
	}
	if cached != "" {
		if data, err := response.UnmarshalImage(cached); err == nil {
			c.JSON(http.StatusOK, response.SuccessWithData(data))
			return
		}
	}
	record, ok := h.lookup(c, form.ID)
	if !ok {
		return
	}
	data, err := h.imageResponse(c.Request.Context(), record)
	if err != nil {
		logs.Logger.Err(err).Int("id", form.ID).Msg("build image response")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	if s, err := data.Marsh(); err == nil && h.cacheTTL(data) > 0 {
		if err := h.cache.SetWithExpiration(form.CacheKey(), s, h.cacheTTL(data)); err != nil {
			logs.Logger.Warn().Err(err).Str("key", form.CacheKey()).Msg("set image cache")
		}
	}
	c.JSON(http.StatusOK, response.SuccessWithData(data))
}

// cacheTTL keeps a cached presigned url from outliving its signature.
func (h *ImageHandler) cacheTTL(data *response.Image) time.Duration {
	ttl := imageCacheTTL
	if data.URL != "" && h.urlExpires < ttl {
		ttl = h.urlExpires / 2
	}
	return ttl
}

func (h *ImageHandler) GetImageFile(c *gin.Context) {
	form := request.GetImage{}
	if err := c.ShouldBindQuery(&form); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := form.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	record, ok := h.lookup(c, form.ID)
	if !ok {
		return
	}
	path := record.Path
	if form.ThumbNail && record.ThumbNailPath != "" {
		path = record.ThumbNailPath
	}
	c.File(path)
}

func (h *ImageHandler) lookup(c *gin.Context, id int) (model.Image, bool) {
	record, err := h.find(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, response.NotFoundError)
		return model.Image{}, false
	}
	if err != nil {
		logs.Logger.Err(err).Int("id", id).Msg("find image")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return model.Image{}, false
	}
	return record, true
}

func (h *ImageHandler) imageResponse(ctx context.Context, record model.Image) (*response.Image, error) {
	data, err := response.NewImage(record)
	if err != nil {
		return nil, err
	}
	if h.signer != nil && record.Key.Valid {
		url, err := h.signer.URL(ctx, record.Key.String, h.urlExpires)
		if err != nil {
			logs.Logger.Warn().Err(err).Str("key", record.Key.String).Msg("presign image url")
		} else {
			data.URL = url
		}
	}
	return data, nil
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
