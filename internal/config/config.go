// Package config loads ragrun settings from a YAML file, a .env file and
// RAGGRAPH_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RAGGRAPH_MODEL or
// RAGGRAPH_MEMORY_DRIVER.
const EnvPrefix = "RAGGRAPH"

// Config is the full ragrun configuration.
type Config struct {
	Agent       string        `mapstructure:"agent"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	NodeTimeout time.Duration `mapstructure:"node_timeout"`
	RunTimeout  time.Duration `mapstructure:"run_timeout"`
	MaxLayers   int           `mapstructure:"max_layers"`

	Log     LogConfig     `mapstructure:"log"`
	Memory  MemoryConfig  `mapstructure:"memory"`
	Search  SearchConfig  `mapstructure:"search"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// LogConfig controls CLI and event logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// MemoryConfig selects the conversation memory backend.
type MemoryConfig struct {
	Driver string `mapstructure:"driver"` // memory, sqlite or mysql
	DSN    string `mapstructure:"dsn"`
	Limit  int    `mapstructure:"limit"`
}

// SearchConfig tunes web search.
type SearchConfig struct {
	// FetchPages is the number of result pages fetched and converted to
	// Markdown. Zero disables fetching.
	FetchPages int    `mapstructure:"fetch_pages"`
	URL        string `mapstructure:"url"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// TracingConfig enables OpenTelemetry spans for graph events.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

var defaults = map[string]any{
	"agent":              "hal9004_rag",
	"model":              "meta-llama/Meta-Llama-3-70B-Instruct",
	"max_tokens":         400,
	"temperature":        0.0,
	"node_timeout":       "60s",
	"run_timeout":        "5m",
	"max_layers":         0,
	"log.level":          "info",
	"log.format":         "console",
	"memory.driver":      "memory",
	"memory.dsn":         "",
	"memory.limit":       5,
	"search.fetch_pages": 0,
	"search.url":         "https://api.duckduckgo.com/",
	"metrics.enabled":    false,
	"metrics.addr":       ":9090",
	"tracing.enabled":    false,
}

// Options locate the files Load reads.
type Options struct {
	// ConfigFile is an explicit YAML path. When empty, raggraph.yaml is
	// looked up in the working directory and is optional.
	ConfigFile string

	// EnvFile is an explicit .env path. When empty, ./.env is loaded if it
	// exists. Variables already set in the environment win.
	EnvFile string
}

// Load reads the configuration in increasing precedence: defaults, the
// YAML file, then environment variables (including those from .env).
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		if _, err := os.Stat(".env"); err == nil {
			envFile = ".env"
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("raggraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Agent == "" {
		errs = append(errs, errors.New("agent is required"))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature))
	}
	if c.NodeTimeout < 0 || c.RunTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.MaxLayers < 0 {
		errs = append(errs, fmt.Errorf("max_layers must not be negative, got %d", c.MaxLayers))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	switch c.Memory.Driver {
	case "memory":
	case "sqlite", "mysql":
		if c.Memory.DSN == "" {
			errs = append(errs, fmt.Errorf("memory.dsn is required for driver %s", c.Memory.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("memory.driver must be memory, sqlite or mysql, got %q", c.Memory.Driver))
	}
	if c.Search.FetchPages < 0 {
		errs = append(errs, fmt.Errorf("search.fetch_pages must not be negative, got %d", c.Search.FetchPages))
	}
	return errors.Join(errs...)
}
