// Package config loads logicsearch settings from a TOML file.
//
// A missing file at the default location is not an error; the defaults are
// used instead. Unknown keys are rejected so typos surface early.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/logicsearch/ai"
)

// DefaultDir is the directory under the user's home holding the config file
// and the default database.
const DefaultDir = ".logicsearch"

// Duration is a time.Duration written as a Go duration string, e.g. "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the on-disk configuration.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	AI        AIConfig        `toml:"ai"`
	Search    SearchConfig    `toml:"search"`
	Knowledge KnowledgeConfig `toml:"knowledge"`
	Log       LogConfig       `toml:"log"`
}

// DatabaseConfig locates the BadgerDB directory.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// AIConfig configures the query normalizer's completion service.
type AIConfig struct {
	Enabled     bool     `toml:"enabled"`
	Host        string   `toml:"host"`
	Model       string   `toml:"model"`
	APIKey      string   `toml:"api_key"`
	Temperature float64  `toml:"temperature"`
	Timeout     Duration `toml:"timeout"`
}

// SearchConfig tunes search and fallback enrichment.
type SearchConfig struct {
	Fallback         bool     `toml:"fallback"`
	Dedup            bool     `toml:"dedup"`
	Evaluator        string   `toml:"evaluator"`
	PoolSize         int      `toml:"pool_size"`
	ExternalTimeout  Duration `toml:"external_timeout"`
	MaxAttempts      int      `toml:"max_attempts"`
	MaxSummaryLength int      `toml:"max_summary_length"`
}

// KnowledgeConfig configures the Wikipedia knowledge source.
type KnowledgeConfig struct {
	Enabled     bool    `toml:"enabled"`
	Language    string  `toml:"language"`
	UserAgent   string  `toml:"user_agent"`
	RateLimit   float64 `toml:"rate_limit"`
	AutoSuggest bool    `toml:"auto_suggest"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Database: DatabaseConfig{Path: defaultDatabasePath()},
		AI: AIConfig{
			Enabled:     false,
			Host:        aiDefaults.CompletionHost,
			Model:       aiDefaults.CompletionModel,
			APIKey:      aiDefaults.APIKey,
			Temperature: aiDefaults.Temperature,
			Timeout:     Duration{aiDefaults.Timeout},
		},
		Search: SearchConfig{
			Fallback:         true,
			Dedup:            true,
			Evaluator:        "tree",
			PoolSize:         4,
			ExternalTimeout:  Duration{30 * time.Second},
			MaxAttempts:      1,
			MaxSummaryLength: 2000,
		},
		Knowledge: KnowledgeConfig{
			Enabled:   true,
			Language:  "en",
			RateLimit: 5,
		},
		Log: LogConfig{Level: "warn"},
	}
}

// DefaultPath returns ~/.logicsearch/config.toml, or a relative path when
// the home directory is unknown.
func DefaultPath() string {
	return filepath.Join(homeDir(), DefaultDir, "config.toml")
}

func defaultDatabasePath() string {
	return filepath.Join(homeDir(), DefaultDir, "db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// Load reads the file at path on top of Default. An empty path means
// DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("config %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path is required")
	}
	switch c.Search.Evaluator {
	case "tree", "stack":
	default:
		return fmt.Errorf("search.evaluator must be tree or stack, got %q", c.Search.Evaluator)
	}
	if c.Search.MaxAttempts < 1 {
		return errors.New("search.max_attempts must be at least 1")
	}
	if c.Search.MaxSummaryLength < 1 {
		return errors.New("search.max_summary_length must be positive")
	}
	if c.Search.ExternalTimeout.Duration < 0 {
		return errors.New("search.external_timeout cannot be negative")
	}
	if c.Knowledge.Enabled && strings.TrimSpace(c.Knowledge.Language) == "" {
		return errors.New("knowledge.language is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not recognized", c.Log.Level)
	}
	if c.AI.Enabled {
		return c.AIConfig().Validate()
	}
	return nil
}

// AIConfig converts the [ai] table into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.AI.Host),
		ai.WithModel(c.AI.Model),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithTemperature(c.AI.Temperature),
		ai.WithTimeout(c.AI.Timeout.Duration),
	)
}
