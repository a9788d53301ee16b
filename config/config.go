package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var GConfig *Config

const (
	envAPIKey      = "CHAT_IMAGE_API_KEY"
	envBaseURL     = "CHAT_IMAGE_BASE_URL"
	envModel       = "CHAT_IMAGE_MODEL"
	envDatabaseDSN = "CHAT_IMAGE_DATABASE_DSN"
)

func Init(data []byte) {
	initFromYaml(data)
	GConfig.applyEnv()
	GConfig.fillDefault()
	err := GConfig.Verify()
	if err != nil {
		panic(err)
	}
}

func initFromYaml(config []byte) {
	err := yaml.Unmarshal(config, &GConfig)
	if err != nil {
		panic(err)
	}
	if GConfig == nil {
		GConfig = &Config{}
	}
}

type Config struct {
	StorageSupplier string `yaml:"storage_supplier"`
	URLExpires      string `yaml:"url_expires"`
	Log             `yaml:"log"`
	API             `yaml:"api"`
	Output          `yaml:"output"`
	AliOss          `yaml:"ali_oss"`
	Database        `yaml:"database"`
	Queue           `yaml:"queue"`
}

func (c *Config) Verify() error {
	if c.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if len(c.RequestOrder) == 0 {
		return fmt.Errorf("api.request_order must contain at least one entry")
	}
	for i, r := range c.RequestOrder {
		if r.Token == "" {
			return fmt.Errorf("api.request_order[%d].token must be set", i)
		}
		if r.Model == "" {
			return fmt.Errorf("api.request_order[%d].model must be set", i)
		}
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.StorageSupplier != StorageLocal && c.StorageSupplier != StorageAliOss {
		return fmt.Errorf("storage_supplier must be local or ali_oss")
	}
	if _, err := time.ParseDuration(c.URLExpires); err != nil {
		return fmt.Errorf("url_expires: %w", err)
	}
	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		return fmt.Errorf("api.timeout: %w", err)
	}
	if c.ThumbnailRatio <= 0 || c.ThumbnailRatio > 1 {
		return fmt.Errorf("output.thumbnail_ratio must be in (0, 1]")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("output.jpeg_quality must be in [1, 100]")
	}
	if c.Queue.Workers < 1 || c.Queue.Size < 0 {
		return fmt.Errorf("queue.workers must be positive and queue.size not negative")
	}
	switch c.Database.Driver {
	case "", DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be mysql or sqlite")
	}
	return nil
}

// applyEnv lets secrets live in the environment (or a .env file) instead of the yaml.
func (c *Config) applyEnv() {
	if v := os.Getenv(envBaseURL); v != "" {
		c.BaseURL = v
	}
	if key := os.Getenv(envAPIKey); key != "" {
		model := os.Getenv(envModel)
		if len(c.RequestOrder) == 0 {
			c.RequestOrder = append(c.RequestOrder, Request{Desc: "env", Model: model})
		}
		for i := range c.RequestOrder {
			if c.RequestOrder[i].Token == "" {
				c.RequestOrder[i].Token = key
			}
			if model != "" && c.RequestOrder[i].Model == "" {
				c.RequestOrder[i].Model = model
			}
		}
	}
	if dsn := os.Getenv(envDatabaseDSN); dsn != "" {
		c.Database.DSN = dsn
	}
}

func (c *Config) fillDefault() {
	if c.StorageSupplier == "" {
		c.StorageSupplier = StorageLocal
	}
	if c.URLExpires == "" {
		c.URLExpires = "168h"
	}
	if c.API.Timeout == "" {
		c.API.Timeout = "6m"
	}
	if c.Output.ThumbnailRatio == 0 {
		c.Output.ThumbnailRatio = 0.25
	}
	if c.Output.JPEGQuality == 0 {
		c.Output.JPEGQuality = 85
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = 4
	}
	if c.Queue.Size == 0 {
		c.Queue.Size = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

const (
	StorageLocal  = "local"
	StorageAliOss = "ali_oss"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

type API struct {
	BaseURL      string    `yaml:"base_url"`
	Timeout      string    `yaml:"timeout"`
	RequestOrder []Request `yaml:"request_order"`
}

func (a API) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 6 * time.Minute
	}
	return d
}

// Request is one attempt in the fallback order. Desc is logged instead of the token.
type Request struct {
	Token string `yaml:"token"`
	Desc  string `yaml:"desc"`
	Model string `yaml:"model"`
}

type Output struct {
	Dir            string  `yaml:"dir"`
	Thumbnail      bool    `yaml:"thumbnail"`
	ThumbnailRatio float64 `yaml:"thumbnail_ratio"`
	CompressInput  bool    `yaml:"compress_input"`
	JPEGQuality    int     `yaml:"jpeg_quality"`
}

type AliOss struct {
	AccessKeyId     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Directory       string `yaml:"directory"`
}

type Database struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

func (d Database) Enabled() bool {
	return d.Driver != ""
}

// Queue bounds the generations running at once in serve mode.
type Queue struct {
	Workers int `yaml:"workers"`
	Size    int `yaml:"size"`
}
