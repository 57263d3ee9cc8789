// Package config loads runtime settings from .env, a YAML file, and
// CODEHUNT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/codehunt/internal/codecontext"
	"github.com/abhisek/codehunt/internal/session"
	"github.com/abhisek/codehunt/internal/store"
	"github.com/abhisek/codehunt/internal/verify"
)

// Config holds all application configuration.
type Config struct {
	Roots []string `yaml:"roots"`

	LogLevel  string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=json pretty"`
	LogFile   string `yaml:"log_file"`

	// BridgeAddr is where the editor bridge listens. Empty disables it.
	BridgeAddr string `yaml:"bridge_addr" validate:"omitempty,hostname_port"`

	NavigationTimeout   time.Duration `yaml:"navigation_timeout" validate:"gt=0"`
	ModificationTimeout time.Duration `yaml:"modification_timeout" validate:"gt=0"`
	SkipRestartDelay    time.Duration `yaml:"skip_restart_delay" validate:"gte=0"`
	ResultRestartDelay  time.Duration `yaml:"result_restart_delay" validate:"gte=0"`

	// DBPath is the LLM request log. Empty uses store.DefaultDBPath.
	DBPath string `yaml:"db_path"`

	MaxFiles    int   `yaml:"max_files" validate:"gt=0"`
	MaxFileSize int64 `yaml:"max_file_size" validate:"gt=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "json",
		BridgeAddr:          "127.0.0.1:7373",
		NavigationTimeout:   verify.DefaultNavigationTimeout,
		ModificationTimeout: verify.DefaultModificationTimeout,
		SkipRestartDelay:    session.DefaultSkipRestartDelay,
		ResultRestartDelay:  session.DefaultResultRestartDelay,
		MaxFiles:            codecontext.DefaultMaxFiles,
		MaxFileSize:         codecontext.DefaultMaxFileSize,
	}
}

// Load builds the configuration. Sources apply in order, later ones
// winning: defaults, the YAML file at path (or $CODEHUNT_CONFIG), then
// environment variables. A .env file in the working directory is loaded
// into the environment first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Default()
	if path == "" {
		path = os.Getenv("CODEHUNT_CONFIG")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ResolveDBPath returns DBPath, or the default location when unset. The
// parent directory is created.
func (c *Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, store.EnsureDir(c.DBPath)
	}
	return store.DefaultDBPath()
}

// ExtractOptions returns the context extractor settings.
func (c *Config) ExtractOptions() codecontext.Options {
	opts := codecontext.DefaultOptions()
	opts.MaxFiles = c.MaxFiles
	opts.MaxFileSize = c.MaxFileSize
	return opts
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	var errs []error

	if v := os.Getenv("CODEHUNT_ROOTS"); v != "" {
		c.Roots = splitList(v)
	}
	setString(&c.LogLevel, "CODEHUNT_LOG_LEVEL")
	setString(&c.LogFormat, "CODEHUNT_LOG_FORMAT")
	setString(&c.LogFile, "CODEHUNT_LOG_FILE")
	setString(&c.BridgeAddr, "CODEHUNT_BRIDGE_ADDR")
	setString(&c.DBPath, "CODEHUNT_DB")

	errs = append(errs,
		setDuration(&c.NavigationTimeout, "CODEHUNT_NAVIGATION_TIMEOUT"),
		setDuration(&c.ModificationTimeout, "CODEHUNT_MODIFICATION_TIMEOUT"),
		setDuration(&c.SkipRestartDelay, "CODEHUNT_SKIP_DELAY"),
		setDuration(&c.ResultRestartDelay, "CODEHUNT_RESULT_DELAY"),
		setInt(&c.MaxFiles, "CODEHUNT_MAX_FILES"),
		setInt64(&c.MaxFileSize, "CODEHUNT_MAX_FILE_SIZE"),
	)
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// splitList splits a comma-separated list into trimmed, non-empty items.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
