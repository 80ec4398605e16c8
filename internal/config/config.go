// Package config holds the runtime settings of minirel: the join mode the
// planner uses, the log output, and the database location.
package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// JoinMode selects how the planner joins two tables.
type JoinMode string

const (
	// JoinMerge uses a sort-merge join when the tables are related by a
	// field comparison, and a nested loop otherwise.
	JoinMerge JoinMode = "merge"

	// JoinNested always uses a nested loop.
	JoinNested JoinMode = "nested"
)

// ParseJoinMode converts text to a JoinMode. Matching is case-insensitive.
func ParseJoinMode(s string) (JoinMode, error) {
	switch m := JoinMode(strings.ToLower(strings.TrimSpace(s))); m {
	case JoinMerge, JoinNested:
		return m, nil
	default:
		return "", fmt.Errorf("unknown join mode %q: must be %q or %q", s, JoinMerge, JoinNested)
	}
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Config is the full configuration. The zero value is not usable; start
// from Default or Load.
//
// JoinMode may change while statements run (a setting statement), so it is
// read and written through JoinMode and SetJoinMode.
type Config struct {
	mu       sync.RWMutex
	joinMode JoinMode

	Log      LogConfig
	Database string
}

// file is the on-disk shape of a config file.
type file struct {
	JoinMode string    `yaml:"join_mode"`
	Log      LogConfig `yaml:"log"`
	Database string    `yaml:"database"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		joinMode: JoinMerge,
		Log:      LogConfig{Level: "info", Format: "text"},
		Database: ":memory:",
	}
}

// Load reads a YAML config file. Fields the file leaves out keep their
// default values. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	f := file{
		JoinMode: string(cfg.joinMode),
		Log:      cfg.Log,
		Database: cfg.Database,
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	mode, err := ParseJoinMode(f.JoinMode)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.joinMode = mode
	cfg.Log = f.Log
	cfg.Database = f.Database

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks that every field holds an accepted value.
func (c *Config) Validate() error {
	if _, err := ParseJoinMode(string(c.JoinMode())); err != nil {
		return err
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q: must be text or json", c.Log.Format)
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	return nil
}

// JoinMode returns the current join mode.
func (c *Config) JoinMode() JoinMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.joinMode
}

// SetJoinMode changes the join mode.
func (c *Config) SetJoinMode(m JoinMode) error {
	if _, err := ParseJoinMode(string(m)); err != nil {
		return err
	}
	c.mu.Lock()
	c.joinMode = m
	c.mu.Unlock()
	return nil
}

// NewLogger builds a slog logger writing to w.
func NewLogger(w io.Writer, lc LogConfig) (*slog.Logger, error) {
	level, err := parseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch lc.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format %q: must be text or json", lc.Format)
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log level %q: must be debug, info, warn or error", s)
	}
}
