package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable read by Load.
const Prefix = "INJECT"

const (
	EnvLocal      = "local"
	EnvTesting    = "testing"
	EnvProduction = "production"
)

// Config is the central typed configuration struct.
type Config struct {
	App    AppConfig    `envconfig:"APP"`
	Server ServerConfig `envconfig:"SERVER"`
	Values ValuesConfig `envconfig:"VALUES"`
}

type AppConfig struct {
	Name      string `envconfig:"NAME" default:"go-inject" validate:"required"`
	Env       string `envconfig:"ENV" default:"local" validate:"oneof=local testing production"`
	Debug     bool   `envconfig:"DEBUG" default:"true"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=json text"`
	Version   string `envconfig:"VERSION" default:"dev"`
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000" validate:"required,numeric"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// ValuesConfig points at an optional YAML file of seed values.
type ValuesConfig struct {
	File string `envconfig:"FILE"`
}

// Load reads the given .env files (".env" when none are given), then
// populates a Config from INJECT_* environment variables.
//
//	cfg, err := config.Load()
//	cfg, err := config.Load("testdata/app.env")
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// A missing .env is normal outside local development.
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the struct tags of every section.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.App.Env == EnvProduction }

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Server.Port }

// LogConfig logs the loaded configuration.
func (c *Config) LogConfig(log *slog.Logger) {
	log.Info("configuration loaded",
		slog.String("app_name", c.App.Name),
		slog.String("env", c.App.Env),
		slog.Bool("debug", c.App.Debug),
		slog.String("log_level", c.App.LogLevel),
		slog.String("log_format", c.App.LogFormat),
		slog.String("port", c.Server.Port),
		slog.String("values_file", c.Values.File),
	)
}
