// Package config loads the optional YAML file holding prolly CLI defaults.
// Command-line flags override values from the file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/prolly/internal/engine"
)

// Config holds all prolly configuration.
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Resolver ResolverConfig `yaml:"resolver"`
	Logging  LoggingConfig  `yaml:"logging"`
	Harness  HarnessConfig  `yaml:"harness"`
}

// OutputConfig configures how answers are printed.
type OutputConfig struct {
	Format string `yaml:"format"` // text, json
	Limit  int    `yaml:"limit"`  // answers per query, 0 = all
}

// ResolverConfig holds the opt-in search limits. Zero means unlimited.
type ResolverConfig struct {
	MaxDepth  int    `yaml:"max_depth"`
	MaxSteps  int    `yaml:"max_steps"`
	LoopCheck bool   `yaml:"loop_check"`
	Timeout   string `yaml:"timeout"` // Go duration, e.g. "10s"; empty = none
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// HarnessConfig configures "prolly test".
type HarnessConfig struct {
	Parallel int `yaml:"parallel"` // scenarios run at once, 0 = unbounded
}

// ValidFormats lists the supported output formats.
var ValidFormats = []string{"text", "json"}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Output:  OutputConfig{Format: "text"},
		Logging: LoggingConfig{Level: "info"},
		Harness: HarnessConfig{Parallel: 4},
	}
}

// Load reads a config file over the defaults. A missing file yields the
// defaults. Environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies PROLLY_* environment variables. Unparseable
// numbers are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PROLLY_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("PROLLY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if n, err := strconv.Atoi(os.Getenv("PROLLY_MAX_DEPTH")); err == nil {
		c.Resolver.MaxDepth = n
	}
	if n, err := strconv.Atoi(os.Getenv("PROLLY_MAX_STEPS")); err == nil {
		c.Resolver.MaxSteps = n
	}
	if b, err := strconv.ParseBool(os.Getenv("PROLLY_LOOP_CHECK")); err == nil {
		c.Resolver.LoopCheck = b
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if !slices.Contains(ValidFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (valid: %v)", c.Output.Format, ValidFormats)
	}
	if c.Output.Limit < 0 {
		return fmt.Errorf("output limit must not be negative, got %d", c.Output.Limit)
	}
	if c.Resolver.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.Resolver.MaxDepth)
	}
	if c.Resolver.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", c.Resolver.MaxSteps)
	}
	if c.Resolver.Timeout != "" {
		if _, err := time.ParseDuration(c.Resolver.Timeout); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", c.Resolver.Timeout, err)
		}
	}
	if c.Harness.Parallel < 0 {
		return fmt.Errorf("parallel must not be negative, got %d", c.Harness.Parallel)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// GetTimeout returns the query timeout, or 0 when none is set.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Resolver.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// ResolverOptions turns the resolver section into engine options.
func (c *Config) ResolverOptions() []engine.Option {
	var opts []engine.Option
	if c.Resolver.MaxDepth > 0 {
		opts = append(opts, engine.WithMaxDepth(c.Resolver.MaxDepth))
	}
	if c.Resolver.MaxSteps > 0 {
		opts = append(opts, engine.WithMaxSteps(c.Resolver.MaxSteps))
	}
	if c.Resolver.LoopCheck {
		opts = append(opts, engine.WithLoopCheck(true))
	}
	return opts
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", s)
	}
}
