package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/reusedev/chat-image/config"
	"github.com/reusedev/chat-image/internal/components/database"
	"github.com/reusedev/chat-image/internal/modules/ai/image"
	"github.com/reusedev/chat-image/internal/modules/dao"
	"github.com/reusedev/chat-image/internal/modules/errs"
	"github.com/reusedev/chat-image/internal/modules/logs"
	"github.com/reusedev/chat-image/internal/modules/model"
	"github.com/reusedev/chat-image/internal/modules/pipeline"
	"github.com/reusedev/chat-image/internal/modules/queue"
	"github.com/reusedev/chat-image/internal/modules/storage/ali"
	"github.com/reusedev/chat-image/internal/modules/storage/local"
	"github.com/reusedev/chat-image/internal/service/http"
	"github.com/reusedev/chat-image/internal/service/http/handler"
	"github.com/reusedev/chat-image/tools"
	"golang.org/x/sync/errgroup"
)

type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

var (
	httpPort   string
	configPath string
	prompt     string
	modelName  string
	output     string
	images     stringList
)

func init() {
	flag.StringVar(&httpPort, "http-port", ":80", "listen http port")
	flag.StringVar(&configPath, "config", "config.yml", "config file path")
	flag.StringVar(&prompt, "prompt", "", "generate (or edit with -image) one image and exit")
	flag.StringVar(&modelName, "model", "", "only use request_order entries of this model")
	flag.StringVar(&output, "output", "", "destination path of the generated image")
	flag.Var(&images, "image", "input image path for editing, repeatable")
}

func main() {
	flag.Parse()
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file, using process environment")
	}
	config.Init(tools.PanicOnError(tools.ReadFile(configPath)))
	logs.InitLogger()

	serve := prompt == ""
	if serve && !config.GConfig.Database.Enabled() {
		// the lookup endpoints need somewhere to read records from
		config.GConfig.Database.Driver = config.DriverSQLite
		config.GConfig.Database.DSN = filepath.Join(config.GConfig.Output.Dir, "chat-image.db")
		if err := local.EnsureDir(config.GConfig.Output.Dir); err != nil {
			panic(err)
		}
	}

	p := pipeline.New(image.NewClient(config.GConfig.API), pipeline.OptionsFromConfig(config.GConfig))
	if config.GConfig.Database.Enabled() {
		database.InitDB(config.GConfig.Database)
		if err := model.Migrate(database.DB); err != nil {
			panic(err)
		}
		p.WithRecorder(pipeline.DBRecorder{})
	}
	if config.GConfig.StorageSupplier == config.StorageAliOss {
		ali.InitOSS(config.GConfig.AliOss)
		p.WithUploader(ali.OssClient)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !serve {
		code := runOnce(ctx, p)
		stop()
		os.Exit(code)
	}
	if err := runServer(ctx, p); err != nil {
		logs.Logger.Err(err).Msg("server exited")
		stop()
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, p *pipeline.Pipeline) int {
	inputs := make([][]byte, 0, len(images))
	for _, path := range images {
		b, err := tools.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read image %s: %v\n", path, err)
			return 2
		}
		inputs = append(inputs, b)
	}
	result, err := p.Run(ctx, pipeline.Request{
		Prompt:      prompt,
		Model:       modelName,
		Images:      inputs,
		Destination: output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", errs.KindOf(err), err)
		return 1
	}
	fmt.Printf("path=%s format=%s byte_size=%d\n", result.Persist.Path, result.Persist.Format, result.Persist.ByteSize)
	return 0
}

func runServer(ctx context.Context, p *pipeline.Pipeline) error {
	q := queue.New(config.GConfig.Queue.Size)
	q.Start(ctx, config.GConfig.Queue.Workers)
	imageHandler := handler.NewImageHandler(queue.NewPipelineQueue(q, p), dao.ImageById)
	if ali.OssClient != nil {
		expire, _ := time.ParseDuration(config.GConfig.URLExpires)
		imageHandler.WithSigner(ali.OssClient, expire)
	}
	server := http.NewServer(httpPort, imageHandler)

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logs.Logger.Info().Str("addr", httpPort).Msg("http server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		logs.Logger.Info().Msg("shutting down http server")
		// in-flight generations are drained, give them one upstream timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GConfig.API.TimeoutDuration())
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	err := g.Wait()
	q.Wait()
	return err
}
