// Package pipeline runs one generation or edit end to end: request the image,
// extract the data url, persist it and register the result.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/reusedev/chat-image/config"
	"github.com/reusedev/chat-image/internal/modules/ai/image"
	"github.com/reusedev/chat-image/internal/modules/logs"
	"github.com/reusedev/chat-image/internal/modules/model"
	"github.com/reusedev/chat-image/internal/modules/storage/local"
	"github.com/reusedev/chat-image/tools"
)

type Generator interface {
	Do(ctx context.Context, taskID string, request image.ChatRequest) []image.Response
}

type Uploader interface {
	UploadImage(ctx context.Context, b []byte) (string, error)
}

type Recorder interface {
	CreateImage(image *model.Image) error
	CreateInvokeHistory(histories []model.InvokeHistory) error
}

type Options struct {
	OutputDir       string
	Thumbnail       bool
	ThumbnailRatio  float64
	CompressInput   bool
	JPEGQuality     int
	StorageSupplier string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputDir:       cfg.Output.Dir,
		Thumbnail:       cfg.Output.Thumbnail,
		ThumbnailRatio:  cfg.Output.ThumbnailRatio,
		CompressInput:   cfg.Output.CompressInput,
		JPEGQuality:     cfg.Output.JPEGQuality,
		StorageSupplier: cfg.StorageSupplier,
	}
}

type Pipeline struct {
	generator Generator
	options   Options
	uploader  Uploader
	recorder  Recorder
}

func New(generator Generator, options Options) *Pipeline {
	return &Pipeline{generator: generator, options: options}
}

// WithUploader mirrors every persisted image to object storage.
func (p *Pipeline) WithUploader(u Uploader) *Pipeline {
	p.uploader = u
	return p
}

// WithRecorder registers every persisted image and upstream attempt.
func (p *Pipeline) WithRecorder(r Recorder) *Pipeline {
	p.recorder = r
	return p
}

type Request struct {
	Prompt string
	Model  string
	Images [][]byte
	// Destination overrides the generated <output dir>/<kind>-<uuid>.<format> path.
	Destination string
}

type Result struct {
	TaskID  string
	Image   model.Image
	Persist local.PersistResult
}

func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	taskID := uuid.NewString()
	chat := image.ChatRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Images: p.prepareInputs(taskID, req.Images),
	}
	kind := chat.Kind()

	responses := p.generator.Do(ctx, taskID, chat)
	p.recordHistory(taskID, responses)
	last, err := image.Last(responses)
	if err != nil {
		return nil, err
	}
	dataURL := last.GetDataURL().String()
	format, err := local.FormatOf(dataURL)
	if err != nil {
		return nil, err
	}

	dest := req.Destination
	if dest == "" {
		dest = filepath.Join(p.options.OutputDir, fmt.Sprintf("%s-%s.%s", kind, taskID, strings.ToLower(format)))
	}
	if err := local.EnsureDir(filepath.Dir(dest)); err != nil {
		return nil, err
	}
	persisted, err := local.Persist(dataURL, dest)
	if err != nil {
		return nil, err
	}
	logs.Logger.Info().
		Str("task_id", taskID).
		Str("kind", kind.String()).
		Str("path", persisted.Path).
		Str("format", persisted.Format).
		Int("byte_size", persisted.ByteSize).
		Msg("image persisted")

	record := model.Image{
		Kind:                kind.String(),
		Prompt:              req.Prompt,
		Path:                persisted.Path,
		Format:              persisted.Format,
		ByteSize:            persisted.ByteSize,
		StorageSupplierName: p.options.StorageSupplier,
		ModelName:           last.GetModel(),
		TokenDesc:           last.GetTokenDesc(),
	}
	data, err := os.ReadFile(persisted.Path)
	if err != nil {
		return nil, err
	}
	record.Width, record.Height = tools.Dimensions(data)
	if p.options.Thumbnail {
		record.ThumbNailPath = p.thumbnail(taskID, persisted, data)
	}
	if p.uploader != nil {
		key, err := p.uploader.UploadImage(ctx, data)
		if err != nil {
			logs.Logger.Err(err).Str("task_id", taskID).Msg("upload image to oss")
		} else {
			record.Key.String, record.Key.Valid = key, true
		}
	}
	if p.recorder != nil {
		if err := p.recorder.CreateImage(&record); err != nil {
			// an unregistered file can never be looked up again
			p.removeFiles(taskID, record.Path, record.ThumbNailPath)
			return nil, fmt.Errorf("register image: %w", err)
		}
	}
	return &Result{TaskID: taskID, Image: record, Persist: persisted}, nil
}

func (p *Pipeline) prepareInputs(taskID string, inputs [][]byte) [][]byte {
	if !p.options.CompressInput || len(inputs) == 0 {
		return inputs
	}
	ret := make([][]byte, 0, len(inputs))
	for i, in := range inputs {
		compressed, err := tools.ConvertAndCompressToJPEG(in, p.options.JPEGQuality)
		if err != nil {
			logs.Logger.Warn().Err(err).Str("task_id", taskID).Int("index", i).Msg("compress input image, sending original")
			ret = append(ret, in)
			continue
		}
		ret = append(ret, compressed)
	}
	return ret
}

// thumbnail returns the thumbnail path, or "" when the image could not be scaled.
func (p *Pipeline) thumbnail(taskID string, persisted local.PersistResult, data []byte) string {
	format, ext := tools.ThumbnailFormat(tools.DetectImageType(data))
	r, err := tools.Thumbnail(bytes.NewReader(data), p.options.ThumbnailRatio, format)
	if err != nil {
		logs.Logger.Warn().Err(err).Str("task_id", taskID).Msg("create thumbnail")
		return ""
	}
	path := strings.TrimSuffix(persisted.Path, filepath.Ext(persisted.Path)) + "-thumbnail." + ext
	if err := local.SaveFile(r, path); err != nil {
		logs.Logger.Warn().Err(err).Str("task_id", taskID).Msg("save thumbnail")
		return ""
	}
	return path
}

func (p *Pipeline) removeFiles(taskID string, paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := local.DeleteFile(path); err != nil {
			logs.Logger.Warn().Err(err).Str("task_id", taskID).Str("path", path).Msg("remove unregistered image")
		}
	}
}

func (p *Pipeline) recordHistory(taskID string, responses []image.Response) {
	if p.recorder == nil {
		return
	}
	histories := make([]model.InvokeHistory, 0, len(responses))
	for _, r := range responses {
		h := model.InvokeHistory{
			TaskId:     taskID,
			TokenDesc:  r.GetTokenDesc(),
			ModelName:  r.GetModel(),
			StatusCode: r.GetStatusCode(),
			DurationMs: r.ReqConsumeMs(),
		}
		if err := r.GetError(); err != nil {
			h.FailedReason = tools.Truncate(err.Error(), 1000)
			h.FailedRespBody = tools.Truncate(r.GetRespBody(), 2000)
		}
		histories = append(histories, h)
	}
	if err := p.recorder.CreateInvokeHistory(histories); err != nil {
		logs.Logger.Err(err).Str("task_id", taskID).Msg("record invoke history")
	}
}
