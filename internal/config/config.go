// Package config loads applist settings from defaults, a YAML file, a .env
// file and APPLIST_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rshade/applist/internal/fetch"
)

// Output formats accepted by output.default_format.
const (
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

// Page size bounds.
const (
	DefaultPageSize = 5
	MaxPageSize     = 1000
)

const (
	configDirName  = ".applist"
	configFileName = "config.yaml"
	envFileName    = ".env"

	// EnvHome overrides the directory holding config.yaml.
	EnvHome = "APPLIST_HOME"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "APPLIST_"
)

// Environment variable names.
const (
	EnvBaseURL     = EnvPrefix + "BASE_URL"
	EnvPageSize    = EnvPrefix + "PAGE_SIZE"
	EnvDedup       = EnvPrefix + "DEDUP"
	EnvStopOnEmpty = EnvPrefix + "STOP_ON_EMPTY"
	EnvOutput      = EnvPrefix + "OUTPUT"
	EnvLogLevel    = EnvPrefix + "LOG_LEVEL"
	EnvLogFormat   = EnvPrefix + "LOG_FORMAT"
	EnvLogFile     = EnvPrefix + "LOG_FILE"
	EnvMetricsAddr = EnvPrefix + "METRICS_ADDR"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the effective applist configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Feed    FeedConfig    `yaml:"feed"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig points at the application listing endpoint.
type APIConfig struct {
	BaseURL  string `yaml:"base_url"`
	PageSize int    `yaml:"page_size"`
}

// FeedConfig selects the accumulation policies.
type FeedConfig struct {
	Dedup       bool `yaml:"dedup"`
	StopOnEmpty bool `yaml:"stop_on_empty"`
}

// OutputConfig controls non-interactive rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
}

// LoggingConfig controls log level, format and destination.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:  fetch.DefaultBaseURL,
			PageSize: DefaultPageSize,
		},
		Output: OutputConfig{
			DefaultFormat: FormatTable,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Dir returns the applist configuration directory.
func Dir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// DefaultPath returns the path of config.yaml inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load builds the effective configuration. An empty path means DefaultPath;
// a missing file at the default path is not an error, but a missing file at
// an explicit path is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		if mergeErr := ShallowMergeYAML(cfg, path); mergeErr != nil {
			return nil, mergeErr
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := loadDotEnv(envFileName); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv exports variables from path without overriding the real environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays APPLIST_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvBaseURL); ok {
		c.API.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvPageSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPageSize, err)
		}
		c.API.PageSize = n
	}
	if v, ok := os.LookupEnv(EnvDedup); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDedup, err)
		}
		c.Feed.Dedup = b
	}
	if v, ok := os.LookupEnv(EnvStopOnEmpty); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStopOnEmpty, err)
		}
		c.Feed.StopOnEmpty = b
	}
	if v, ok := os.LookupEnv(EnvOutput); ok {
		c.Output.DefaultFormat = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		c.Logging.Format = v
	}
	if v, ok := os.LookupEnv(EnvLogFile); ok {
		c.Logging.File = v
	}
	if v, ok := os.LookupEnv(EnvMetricsAddr); ok {
		c.Metrics.Addr = v
	}
	return nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: api.base_url: %w", ErrInvalidConfig, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q must be an absolute http(s) URL", ErrInvalidConfig, c.API.BaseURL)
	}

	if c.API.PageSize < 1 || c.API.PageSize > MaxPageSize {
		return fmt.Errorf("%w: api.page_size %d outside 1..%d", ErrInvalidConfig, c.API.PageSize, MaxPageSize)
	}

	switch c.Output.DefaultFormat {
	case FormatTable, FormatJSON, FormatNDJSON:
	default:
		return fmt.Errorf("%w: output.default_format %q (want table, json or ndjson)",
			ErrInvalidConfig, c.Output.DefaultFormat)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console", "text":
	default:
		return fmt.Errorf("%w: logging.format %q (want json, console or text)", ErrInvalidConfig, c.Logging.Format)
	}

	return nil
}

// Save writes c to path as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshalling config: %w", err)
	}
	return data, nil
}
