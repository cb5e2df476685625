// Package config loads nocluely settings from YAML and the environment.
// Precedence: defaults < config file < environment < CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/policy"
)

const (
	// DefaultInterval is the monitor polling cadence.
	DefaultInterval = 10 * time.Second
	// DefaultStatusEvery prints a status line every N quiet ticks.
	DefaultStatusEvery = 6

	MinInterval = time.Second
	MaxInterval = time.Hour

	configFileName = "config.yaml"

	EnvInterval   = "NOCLUELY_INTERVAL"
	EnvDataDir    = "NOCLUELY_DATA_DIR"
	EnvLogPath    = "NOCLUELY_LOG_PATH"
	EnvIdentifier = "NOCLUELY_IDENTIFIER"
)

// Config is the merged runtime configuration.
type Config struct {
	Monitor MonitorConfig `yaml:"monitor"`
	Target  TargetConfig  `yaml:"target"`
	Log     LogConfig     `yaml:"log"`
	DataDir string        `yaml:"data_dir"`
}

// MonitorConfig controls the polling loop.
type MonitorConfig struct {
	Interval    time.Duration `yaml:"interval"`
	StatusEvery int           `yaml:"status_every"`
}

// TargetConfig overrides the attribution signature.
type TargetConfig struct {
	Identifier string   `yaml:"identifier"`
	Exclude    []string `yaml:"exclude"`
}

// LogConfig controls the zap file sink.
type LogConfig struct {
	Path string `yaml:"path"`
}

// Default returns the baseline configuration. dataDir and logPath come from
// the resolved exec mode paths.
func Default(dataDir, logPath string) Config {
	return Config{
		Monitor: MonitorConfig{
			Interval:    DefaultInterval,
			StatusEvery: DefaultStatusEvery,
		},
		Target: TargetConfig{
			Identifier: policy.DefaultIdentifier,
		},
		Log:     LogConfig{Path: logPath},
		DataDir: dataDir,
	}
}

// DefaultPath returns the config file location inside dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, configFileName)
}

// Load merges the YAML file at path over cfg. When optional is set a
// missing file is not an error.
func Load(cfg Config, path string, optional bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Decoding into the populated struct keeps defaults for absent keys.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from NOCLUELY_* environment variables.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvInterval, v, err)
		}
		c.Monitor.Interval = d
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		c.DataDir = v
	}
	if v, ok := lookup(EnvLogPath); ok && v != "" {
		c.Log.Path = v
	}
	if v, ok := lookup(EnvIdentifier); ok && strings.TrimSpace(v) != "" {
		c.Target.Identifier = strings.TrimSpace(v)
	}
	return nil
}

// Validate checks ranges and required values.
func (c Config) Validate() error {
	if c.Monitor.Interval < MinInterval || c.Monitor.Interval > MaxInterval {
		return fmt.Errorf("monitor interval must be between %s and %s (got %s)",
			MinInterval, MaxInterval, c.Monitor.Interval)
	}
	if c.Monitor.StatusEvery < 1 {
		return fmt.Errorf("monitor status_every must be at least 1 (got %d)", c.Monitor.StatusEvery)
	}
	if strings.TrimSpace(c.Target.Identifier) == "" {
		return errors.New("target identifier cannot be empty")
	}
	if c.DataDir == "" {
		return errors.New("data directory cannot be empty")
	}
	return nil
}

// Signature builds the attribution signature from the target settings.
func (c Config) Signature() policy.Signature {
	return policy.NewCluelySignature().
		WithIdentifier(c.Target.Identifier).
		WithExclusions(c.Target.Exclude...)
}
