// Package config loads run configuration for the rotorsizer command from an
// optional file, ROTORSIZER_* environment variables and built-in defaults.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/piwi3910/RotorSizer/internal/logging"
	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/observability"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "ROTORSIZER"

// Config is the resolved run configuration.
type Config struct {
	DataDir   string `mapstructure:"data_dir"`
	OutputDir string `mapstructure:"output_dir"`

	Log struct {
		Level     string `mapstructure:"level"`
		Format    string `mapstructure:"format"`
		AddSource bool   `mapstructure:"add_source"`
	} `mapstructure:"log"`

	Eval struct {
		Workers    int    `mapstructure:"workers"` // 0 = one per CPU
		Frame      string `mapstructure:"frame"`
		HubLayout  string `mapstructure:"hub_layout"`
		TablesFile string `mapstructure:"tables_file"`
	} `mapstructure:"eval"`

	Metrics struct {
		File string `mapstructure:"file"` // text exposition written after a run; empty disables
	} `mapstructure:"metrics"`

	Tracing struct {
		Enabled     bool    `mapstructure:"enabled"`
		Exporter    string  `mapstructure:"exporter"`
		SampleRatio float64 `mapstructure:"sample_ratio"`
	} `mapstructure:"tracing"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		Prefix   string `mapstructure:"prefix"`
	} `mapstructure:"redis"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", ".rotorsizer")
	v.SetDefault("output_dir", "out")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)
	v.SetDefault("eval.workers", 0)
	v.SetDefault("eval.frame", string(model.FramePlate))
	v.SetDefault("eval.hub_layout", string(model.HubLayoutSimple))
	v.SetDefault("eval.tables_file", "")
	v.SetDefault("metrics.file", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "rotorsizer")
}

// Load reads the configuration. path may be empty, in which case only the
// environment and defaults apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Eval.Workers < 0 {
		return fmt.Errorf("eval.workers must be >= 0, got %d", c.Eval.Workers)
	}
	switch model.FrameKind(c.Eval.Frame) {
	case model.FramePlate, model.FrameOnePiece, model.FrameLayered:
	default:
		return fmt.Errorf("eval.frame must be plate, onepiece or layered, got %q", c.Eval.Frame)
	}
	switch model.HubLayoutMode(c.Eval.HubLayout) {
	case model.HubLayoutSimple, model.HubLayoutGrid:
	default:
		return fmt.Errorf("eval.hub_layout must be simple or grid, got %q", c.Eval.HubLayout)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1, got %.2f", c.Tracing.SampleRatio)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must be >= 0, got %d", c.Redis.DB)
	}
	return nil
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:     c.Log.Level,
		Format:    c.Log.Format,
		AddSource: c.Log.AddSource,
	}
}

// TracingConfig returns the tracing configuration.
func (c *Config) TracingConfig() observability.TracingConfig {
	tc := observability.DefaultTracingConfig()
	tc.Enabled = c.Tracing.Enabled
	tc.Exporter = c.Tracing.Exporter
	tc.SampleRatio = c.Tracing.SampleRatio
	return tc
}

// EvalSettings overlays the evaluation options onto base. Frame tables
// are loaded separately from TablesFile.
func (c *Config) EvalSettings(base model.EvalSettings) model.EvalSettings {
	base.Frame = model.FrameKind(c.Eval.Frame)
	base.HubLayout = model.HubLayoutMode(c.Eval.HubLayout)
	base.Workers = c.Eval.Workers
	if base.Workers == 0 {
		base.Workers = runtime.NumCPU()
	}
	return base
}
