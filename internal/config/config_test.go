package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RotorSizer/internal/model"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "plate", cfg.Eval.Frame)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.False(t, cfg.Tracing.Enabled)

	settings := cfg.EvalSettings(model.DefaultEvalSettings())
	assert.GreaterOrEqual(t, settings.Workers, 1)
	assert.Equal(t, model.FramePlate, settings.Frame)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotorsizer.yaml")
	body := "log:\n  format: json\neval:\n  frame: layered\n  hub_layout: grid\n  workers: 3\nredis:\n  db: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	t.Setenv("ROTORSIZER_LOG_LEVEL", "debug")
	t.Setenv("ROTORSIZER_REDIS_ADDR", "cache:6380")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)

	settings := cfg.EvalSettings(model.DefaultEvalSettings())
	assert.Equal(t, model.FrameLayered, settings.Frame)
	assert.Equal(t, model.HubLayoutGrid, settings.HubLayout)
	assert.Equal(t, 3, settings.Workers)
	assert.Equal(t, "json", cfg.Logging().Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("ROTORSIZER_EVAL_FRAME", "balsa")
	_, err := Load("")
	assert.ErrorContains(t, err, "eval.frame")
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"workers", func(c *Config) { c.Eval.Workers = -1 }},
		{"hub layout", func(c *Config) { c.Eval.HubLayout = "packed" }},
		{"sample ratio", func(c *Config) { c.Tracing.SampleRatio = 1.5 }},
		{"redis db", func(c *Config) { c.Redis.DB = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTracingConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Tracing.Enabled = true
	tc := cfg.TracingConfig()
	assert.True(t, tc.Enabled)
	assert.Equal(t, "rotorsizer", tc.ServiceName)
	assert.Equal(t, "stdout", tc.Exporter)
}
