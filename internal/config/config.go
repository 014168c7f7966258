// Package config loads, defaults and validates the docrotate run
// configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docrotate/internal/convert"
	"git.home.luguber.info/inful/docrotate/internal/util/sets"
)

// Config is the resolved run configuration.
type Config struct {
	InputTypes            []string        `yaml:"input_types"`
	OutputTypes           []string        `yaml:"output_types"`
	MaxFileSizeMB         float64         `yaml:"max_file_size_mb"`
	RetryAttempts         int             `yaml:"retry_attempts"`
	RetryDelaySeconds     float64         `yaml:"retry_delay_seconds"`
	ConvertTimeoutSeconds float64         `yaml:"convert_timeout_seconds"`
	Directories           DirectoryConfig `yaml:"directories"`
	History               HistoryConfig   `yaml:"history"`
	Events                EventsConfig    `yaml:"events"`
	Daemon                DaemonConfig    `yaml:"daemon"`
}

// DirectoryConfig names the four directory roles of one directory set.
type DirectoryConfig struct {
	Inputs        string `yaml:"inputs"`
	Outputs       string `yaml:"outputs"`
	InputsQueue   string `yaml:"inputs_queue"`
	InputsStaging string `yaml:"inputs_staging"`
}

// HistoryConfig controls the durable run store. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// EventsConfig controls run-completed event publishing. An empty NATS URL
// disables it.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// DaemonConfig controls watch mode.
type DaemonConfig struct {
	Watch           bool    `yaml:"watch"`
	DebounceSeconds float64 `yaml:"debounce_seconds"`
	IntervalMinutes int     `yaml:"interval_minutes"`
	MetricsListen   string  `yaml:"metrics_listen"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		InputTypes:        []string{"pdf"},
		OutputTypes:       []string{"md"},
		MaxFileSizeMB:     100,
		RetryAttempts:     2,
		RetryDelaySeconds: 1.0,
		Directories: DirectoryConfig{
			Inputs:        "./inputs",
			Outputs:       "./outputs",
			InputsQueue:   "./inputs_queue",
			InputsStaging: "./inputs_staging",
		},
		History: HistoryConfig{Path: "./docrotate-runs.db"},
		Events:  EventsConfig{Subject: "docrotate.runs"},
		Daemon:  DaemonConfig{Watch: true, DebounceSeconds: 2},
	}
}

// Load reads configuration from path. A missing file yields the defaults,
// matching the drop-in behavior of running without a config file. Values are
// environment-expanded and a .env file, when present, is loaded first.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("configuration file not found, using defaults", "path", path)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "docrotate.runs"
	}
	slog.Info("loaded configuration", "path", path)
	return cfg, nil
}

// Validate checks the rules the pipeline relies on. It must pass before any
// directory is mutated.
func (c *Config) Validate() error {
	if len(c.InputTypes) == 0 || len(c.OutputTypes) == 0 {
		return fmt.Errorf("input and output types must not be empty")
	}

	registry := convert.RegistrySet()
	in := sets.New(c.InputTypes...)
	out := sets.New(c.OutputTypes...)

	if bad := in.Diff(registry); len(bad) > 0 {
		return fmt.Errorf("unsupported input types: %v (supported: %v)",
			sets.SortedStrings(bad), sets.SortedStrings(registry))
	}
	if bad := out.Diff(registry); len(bad) > 0 {
		return fmt.Errorf("unsupported output types: %v (supported: %v)",
			sets.SortedStrings(bad), sets.SortedStrings(registry))
	}
	if in.Equal(out) {
		return fmt.Errorf("input types cannot be identical to output types")
	}

	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max_file_size_mb must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts cannot be negative")
	}
	if c.RetryDelaySeconds < 0 {
		return fmt.Errorf("retry_delay_seconds cannot be negative")
	}
	if c.ConvertTimeoutSeconds < 0 {
		return fmt.Errorf("convert_timeout_seconds cannot be negative")
	}

	dirs := map[string]string{
		"inputs":         c.Directories.Inputs,
		"outputs":        c.Directories.Outputs,
		"inputs_queue":   c.Directories.InputsQueue,
		"inputs_staging": c.Directories.InputsStaging,
	}
	seen := map[string]string{}
	for role, path := range dirs {
		if path == "" {
			return fmt.Errorf("directories.%s must be set", role)
		}
		if prev, ok := seen[path]; ok {
			return fmt.Errorf("directories.%s and directories.%s must differ (both %q)", prev, role, path)
		}
		seen[path] = role
	}
	return nil
}

// InputTypeSet returns the configured input extensions as a set.
func (c *Config) InputTypeSet() sets.Set[string] { return sets.New(c.InputTypes...) }

// MaxFileSizeBytes converts the configured ceiling to bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB * 1024 * 1024)
}

// RetryDelay returns the fixed delay between retries.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds * float64(time.Second))
}

// ConvertTimeout returns the per-attempt conversion ceiling; zero disables it.
func (c *Config) ConvertTimeout() time.Duration {
	return time.Duration(c.ConvertTimeoutSeconds * float64(time.Second))
}

// DebounceDelay returns the daemon's watcher debounce window.
func (c *Config) DebounceDelay() time.Duration {
	if c.Daemon.DebounceSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Daemon.DebounceSeconds * float64(time.Second))
}
