package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `
storage_supplier: local
log:
  level: debug
api:
  base_url: https://api.example.com/v1
  timeout: 2m
  request_order:
    - token: sk-1
      desc: primary
      model: google/gemini-2.5-flash-image-preview
output:
  dir: ./images
  thumbnail: true
`

func TestInit(t *testing.T) {
	t.Setenv(envAPIKey, "")
	t.Setenv(envBaseURL, "")
	Init([]byte(sample))
	require.Equal(t, "https://api.example.com/v1", GConfig.BaseURL)
	require.Len(t, GConfig.RequestOrder, 1)
	require.Equal(t, "primary", GConfig.RequestOrder[0].Desc)
	require.Equal(t, 0.25, GConfig.ThumbnailRatio)
	require.Equal(t, 85, GConfig.JPEGQuality)
	require.Equal(t, "168h", GConfig.URLExpires)
	require.False(t, GConfig.Database.Enabled())
	require.Equal(t, Queue{Workers: 4, Size: 100}, GConfig.Queue)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(envAPIKey, "sk-env")
	t.Setenv(envModel, "openai/gpt-image-1")
	t.Setenv(envBaseURL, "https://proxy.example.com")
	c := &Config{Output: Output{Dir: "out"}}
	c.applyEnv()
	c.fillDefault()
	require.NoError(t, c.Verify())
	require.Equal(t, "https://proxy.example.com", c.BaseURL)
	require.Equal(t, []Request{{Token: "sk-env", Desc: "env", Model: "openai/gpt-image-1"}}, c.RequestOrder)
}

func TestVerify(t *testing.T) {
	valid := func() *Config {
		c := &Config{
			API:    API{BaseURL: "https://api.example.com", RequestOrder: []Request{{Token: "sk", Model: "m"}}},
			Output: Output{Dir: "out"},
		}
		c.fillDefault()
		return c
	}
	require.NoError(t, valid().Verify())

	cases := map[string]func(c *Config){
		"no base url":     func(c *Config) { c.BaseURL = "" },
		"no order":        func(c *Config) { c.RequestOrder = nil },
		"no token":        func(c *Config) { c.RequestOrder[0].Token = "" },
		"no output dir":   func(c *Config) { c.Output.Dir = "" },
		"bad storage":     func(c *Config) { c.StorageSupplier = "s3" },
		"bad expires":     func(c *Config) { c.URLExpires = "week" },
		"bad ratio":       func(c *Config) { c.ThumbnailRatio = 2 },
		"bad quality":     func(c *Config) { c.JPEGQuality = 101 },
		"bad db driver":   func(c *Config) { c.Database.Driver = "oracle" },
		"bad api timeout": func(c *Config) { c.API.Timeout = "soon" },
		"bad workers":     func(c *Config) { c.Queue.Workers = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			require.Error(t, c.Verify())
		})
	}
}
