// Package config loads the dashboard configuration from defaults, an optional YAML file,
// DASHBOARD_ prefixed environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aouyang1/go-taxiforecaster/boosting"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "DASHBOARD"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Environment string        `mapstructure:"environment"`
	LogLevel    string        `mapstructure:"log_level"`
	Server      ServerConfig  `mapstructure:"server"`
	Data        DataConfig    `mapstructure:"data"`
	Session     SessionConfig `mapstructure:"session"`
	Model       ModelConfig   `mapstructure:"model"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DataConfig points at the hourly order history, taxi_hour.csv in the working directory
// unless set. Synthetic data replaces the file only when Synthetic is enabled.
type DataConfig struct {
	Path            string `mapstructure:"path"`
	TimestampColumn string `mapstructure:"timestamp_column"`
	SegmentColumn   string `mapstructure:"segment_column"`
	TargetColumn    string `mapstructure:"target_column"`
	Synthetic       bool   `mapstructure:"synthetic"`
	Seed            uint64 `mapstructure:"seed"`
}

type SessionConfig struct {
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
}

type ModelConfig struct {
	Iterations     int     `mapstructure:"iterations"`
	LearningRate   float64 `mapstructure:"learning_rate"`
	MaxDepth       int     `mapstructure:"max_depth"`
	MinSamplesLeaf int     `mapstructure:"min_samples_leaf"`
	L2Reg          float64 `mapstructure:"l2_leaf_reg"`
	MaxBins        int     `mapstructure:"max_bins"`
}

// Flags returns the command-line flags understood by Load
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("dashboard", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML configuration file")
	fs.Int("port", 3031, "port to serve the dashboard on")
	fs.String("data", "", "path to the hourly taxi orders CSV")
	fs.Bool("synthetic", false, "serve simulated taxi orders instead of a CSV")
	fs.String("log-level", "info", "debug, info, warn or error")
	return fs
}

// Load builds the configuration. The flag set may be nil, otherwise it must already be
// parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := ""
	if fs != nil {
		bindings := map[string]string{
			"server.port":    "port",
			"data.path":      "data",
			"data.synthetic": "synthetic",
			"log_level":      "log-level",
		}
		for key, name := range bindings {
			if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
				return nil, fmt.Errorf("unable to bind flag %s, %w", name, err)
			}
		}
		configPath, _ = fs.GetString("config")
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config, %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config, %w", err)
	}
	cfg.Environment = strings.ToLower(cfg.Environment)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("server.port", 3031)
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("data.path", "taxi_hour.csv")
	v.SetDefault("data.timestamp_column", "timestamp")
	v.SetDefault("data.segment_column", "segment")
	v.SetDefault("data.target_column", "target")
	v.SetDefault("data.synthetic", false)
	v.SetDefault("data.seed", 42)

	v.SetDefault("session.cookie_name", "taxiforecaster_session")
	v.SetDefault("session.ttl", "2h")

	v.SetDefault("model.iterations", boosting.DefaultIterations)
	v.SetDefault("model.learning_rate", boosting.DefaultLearningRate)
	v.SetDefault("model.max_depth", boosting.DefaultMaxDepth)
	v.SetDefault("model.min_samples_leaf", boosting.DefaultMinSamplesLeaf)
	v.SetDefault("model.l2_leaf_reg", boosting.DefaultL2Reg)
	v.SetDefault("model.max_bins", boosting.DefaultMaxBins)
}

// Validate checks the server, logging and model settings
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d, %w", c.Server.Port, ErrInvalidConfig)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s, %w", c.Server.ShutdownTimeout, ErrInvalidConfig)
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is empty, %w", ErrInvalidConfig)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s, %w", c.Session.TTL, ErrInvalidConfig)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if !c.Data.Synthetic && c.Data.Path == "" {
		return fmt.Errorf("no data path and synthetic data disabled, %w", ErrInvalidConfig)
	}
	if err := c.ModelOptions().Validate(); err != nil {
		return fmt.Errorf("%w, %w", ErrInvalidConfig, err)
	}
	return nil
}

// IsProduction reports whether the dashboard runs in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Level parses the configured log level
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("log level %q, %w", c.LogLevel, ErrInvalidConfig)
	}
	return lvl, nil
}

// NewLogger returns a JSON logger in production and a text logger otherwise
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	hopt := &slog.HandlerOptions{Level: lvl}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, hopt))
	}
	return slog.New(slog.NewTextHandler(w, hopt))
}

// ModelOptions converts the model section into booster options
func (c *Config) ModelOptions() *boosting.Options {
	return &boosting.Options{
		Iterations:     c.Model.Iterations,
		LearningRate:   c.Model.LearningRate,
		MaxDepth:       c.Model.MaxDepth,
		MinSamplesLeaf: c.Model.MinSamplesLeaf,
		L2Reg:          c.Model.L2Reg,
		MaxBins:        c.Model.MaxBins,
	}
}

// Addr returns the listen address of the server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
