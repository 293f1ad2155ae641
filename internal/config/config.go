// Package config loads campaignd configuration.
//
// Values are layered: built-in defaults, then the YAML file named by
// --config or CAMPAIGN_CONFIG, then environment overrides, then command-line
// flags applied by the caller. Validate reports every invalid field at once.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/callcampaign-mcp/internal/similarity"
)

// Environment variables read by ApplyEnv
const (
	EnvConfig        = "CAMPAIGN_CONFIG"
	EnvDBPath        = "CAMPAIGN_DB_PATH"
	EnvLogLevel      = "CAMPAIGN_LOG_LEVEL"
	EnvMetricsAddr   = "CAMPAIGN_METRICS_ADDR"
	EnvMaxCandidates = "CAMPAIGN_MAX_CANDIDATES"
)

// DefaultDBPath is used when no database path is configured
const DefaultDBPath = "campaign.db"

// Config is the complete campaignd configuration
type Config struct {
	// DBPath is the SQLite database file holding campaigns and clients.
	DBPath string `yaml:"db_path"`

	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Resolver ResolverConfig `yaml:"resolver"`
	Import   ImportConfig   `yaml:"import"`
}

// LogConfig configures the stderr logger
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	// Addr is the listen address of /metrics. Empty disables the listener.
	Addr string `yaml:"addr"`
}

// ResolverConfig tunes client resolution
type ResolverConfig struct {
	// MaxCandidates bounds the fuzzy scan of one resolution.
	MaxCandidates int `yaml:"max_candidates"`
	// FuzzyTimeout bounds the duration of the fuzzy scan.
	FuzzyTimeout time.Duration `yaml:"fuzzy_timeout"`
	// Normalization is lowercase or fold.
	Normalization string `yaml:"normalization"`
	// CacheSize is the number of cached results; 0 disables the cache.
	CacheSize int `yaml:"cache_size"`
	// CacheTTL is the lifetime of a cached result.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ImportConfig tunes roster imports
type ImportConfig struct {
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		DBPath: DefaultDBPath,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Resolver: ResolverConfig{
			MaxCandidates: 50000,
			FuzzyTimeout:  5 * time.Second,
			Normalization: string(similarity.ModeLowercase),
			CacheSize:     0,
			CacheTTL:      10 * time.Minute,
		},
		Import: ImportConfig{
			Workers:   4,
			BatchSize: 200,
		},
	}
}

// Load builds the configuration from defaults, the optional file at path
// (or CAMPAIGN_CONFIG when path is empty) and the environment
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a YAML file into c
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		c.DBPath = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		c.Metrics.Addr = v
	}
	if v, ok := lookup(EnvMaxCandidates); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxCandidates, err)
		}
		c.Resolver.MaxCandidates = n
	}
	return nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, fmt.Errorf("db_path is required"))
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if c.Resolver.MaxCandidates <= 0 {
		errs = append(errs, fmt.Errorf("resolver.max_candidates must be positive"))
	}
	if c.Resolver.FuzzyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("resolver.fuzzy_timeout must be positive"))
	}
	if _, err := similarity.ParseMode(c.Resolver.Normalization); err != nil {
		errs = append(errs, fmt.Errorf("resolver.normalization: %w", err))
	}
	if c.Resolver.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("resolver.cache_size must not be negative"))
	}
	if c.Resolver.CacheSize > 0 && c.Resolver.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("resolver.cache_ttl must be positive when the cache is enabled"))
	}

	if c.Import.Workers <= 0 {
		errs = append(errs, fmt.Errorf("import.workers must be positive"))
	}
	if c.Import.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("import.batch_size must be positive"))
	}

	return errors.Join(errs...)
}

// SlogLevel parses Log.Level
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NormalizationMode parses Resolver.Normalization
func (c *Config) NormalizationMode() similarity.Mode {
	mode, err := similarity.ParseMode(c.Resolver.Normalization)
	if err != nil {
		return similarity.ModeLowercase
	}
	return mode
}
