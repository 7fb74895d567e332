// Package config loads synccore stream configuration from YAML, the way
// a deployment would declare which streams to run, which store backs
// their state, and how each stream's HTTP client should behave.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	yaml "go.yaml.in/yaml/v2"
)

// File is the top-level shape of a synccore configuration file.
type File struct {
	Store   StoreConfig    `yaml:"store"`
	Streams []StreamConfig `yaml:"streams"`
}

// StoreConfig selects and configures the StateStore backend.
type StoreConfig struct {
	// Kind is one of "memory", "sqlite", "mysql".
	Kind string `yaml:"kind"`
	// DSN is the SQLite path or MySQL DSN. Unused for "memory".
	DSN string `yaml:"dsn"`
}

// StreamConfig describes one sync stream: its identity, attempt budget,
// checkpoint batching, and the HTTP client settings for talking to the
// external system it syncs from.
type StreamConfig struct {
	Name                string        `yaml:"name"`
	System              string        `yaml:"system"`
	MaxAttempts         int           `yaml:"max_attempts"`
	CheckpointSaveEvery int           `yaml:"checkpoint_save_every"`

	BaseURL        string            `yaml:"base_url"`
	ConnectTimeout time.Duration     `yaml:"connect_timeout"`
	ReadTimeout    time.Duration     `yaml:"read_timeout"`
	DefaultHeaders map[string]string `yaml:"default_headers"`
	VerifySSL      bool              `yaml:"verify_ssl"`
	// LogLevel is one of "quiet", "error", "info", "debug"; see
	// httpclient.LogLevel. Empty defaults to "error".
	LogLevel string `yaml:"log_level"`

	RateLimitPerWindow int           `yaml:"rate_limit_per_window"`
	RateLimitWindow    time.Duration `yaml:"rate_limit_window"`

	APIKeyEnv string `yaml:"api_key_env"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} references with the named
// environment variable's value, or "" if it isn't set.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		return os.Getenv(name)
	})
}

// Load reads and parses a YAML configuration file at path, expanding
// ${VAR_NAME} environment variable references in string fields that
// commonly carry secrets (DSN, base URL, header values).
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse YAML config: %w", err)
	}

	f.Store.DSN = expandEnvVars(f.Store.DSN)
	for i := range f.Streams {
		s := &f.Streams[i]
		s.BaseURL = expandEnvVars(s.BaseURL)
		for k, v := range s.DefaultHeaders {
			s.DefaultHeaders[k] = expandEnvVars(v)
		}
	}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	switch f.Store.Kind {
	case "memory", "sqlite", "mysql":
	case "":
		return fmt.Errorf("store.kind is required")
	default:
		return fmt.Errorf("store.kind %q not recognized (want memory, sqlite, or mysql)", f.Store.Kind)
	}
	if f.Store.Kind != "memory" && f.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for store.kind %q", f.Store.Kind)
	}

	seen := make(map[string]bool, len(f.Streams))
	for _, s := range f.Streams {
		if s.Name == "" {
			return fmt.Errorf("stream missing required name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate stream name %q", s.Name)
		}
		seen[s.Name] = true
		if s.System == "" {
			return fmt.Errorf("stream %q missing required system", s.Name)
		}
	}
	return nil
}
