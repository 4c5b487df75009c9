package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"gen1/internal/logging"
)

// Config holds all gen1 configuration.
type Config struct {
	// Name of the project created when none is selected
	Name string `yaml:"name" toml:"name"`

	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	Remote   RemoteConfig   `yaml:"remote" toml:"remote"`
	Executor ExecutorConfig `yaml:"executor" toml:"executor"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// StorageConfig configures the project key-value store.
type StorageConfig struct {
	Driver       string `yaml:"driver" toml:"driver" env:"GEN1_DB_DRIVER"` // sqlite (pure Go) or sqlite3 (cgo)
	DatabasePath string `yaml:"database_path" toml:"database_path" env:"GEN1_DB"`
}

// RemoteConfig configures the GitHub mirror.
type RemoteConfig struct {
	RepoURL          string `yaml:"repo_url" toml:"repo_url" env:"GEN1_REPO_URL"`
	Branch           string `yaml:"branch" toml:"branch" env:"GEN1_BRANCH"`
	Token            string `yaml:"token,omitempty" toml:"token" env:"GEN1_GITHUB_TOKEN"`
	APIBaseURL       string `yaml:"api_base_url" toml:"api_base_url" env:"GEN1_GITHUB_API"`
	Timeout          string `yaml:"timeout" toml:"timeout" env:"GEN1_REMOTE_TIMEOUT"`
	FetchConcurrency int    `yaml:"fetch_concurrency" toml:"fetch_concurrency" env:"GEN1_FETCH_CONCURRENCY"`
}

// ExecutorConfig configures action execution.
type ExecutorConfig struct {
	// FileOpsEnabled gates AI-initiated local file operations. Remote and
	// document actions are not affected.
	FileOpsEnabled bool   `yaml:"file_ops_enabled" toml:"file_ops_enabled" env:"GEN1_FILE_OPS_ENABLED"`
	ArtifactsDir   string `yaml:"artifacts_dir" toml:"artifacts_dir" env:"GEN1_ARTIFACTS_DIR"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" toml:"level" env:"GEN1_LOG_LEVEL"` // debug, info, warn, error
	Format     string          `yaml:"format" toml:"format"`                    // json, console
	File       string          `yaml:"file" toml:"file" env:"GEN1_LOG_FILE"`
	DebugMode  bool            `yaml:"debug_mode" toml:"debug_mode" env:"GEN1_DEBUG"`
	Categories map[string]bool `yaml:"categories,omitempty" toml:"categories"`
}

// Options converts to the logging package options.
func (l LoggingConfig) Options() logging.Options {
	return logging.Options{
		Level:      l.Level,
		Format:     l.Format,
		File:       l.File,
		DebugMode:  l.DebugMode,
		Categories: l.Categories,
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "default",

		Storage: StorageConfig{
			Driver:       "sqlite",
			DatabasePath: filepath.Join(".gen1", "projects.db"),
		},

		Remote: RemoteConfig{
			Branch:           "main",
			APIBaseURL:       "https://api.github.com",
			Timeout:          "30s",
			FetchConcurrency: 4,
		},

		Executor: ExecutorConfig{
			FileOpsEnabled: true,
			ArtifactsDir:   filepath.Join(".gen1", "artifacts"),
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML or TOML file (by extension).
// A missing file yields the defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
		logging.ConfigDebug("loaded config from %s", path)
	case os.IsNotExist(err):
		logging.ConfigDebug("no config at %s, using defaults", path)
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may carry a token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
// GITHUB_TOKEN is honoured as a fallback; GEN1_* variables win.
func (c *Config) applyEnvOverrides() error {
	if tok := os.Getenv("GITHUB_TOKEN"); tok != "" {
		c.Remote.Token = tok
	}
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// GetRemoteTimeout returns the remote HTTP timeout as a duration.
func (c *Config) GetRemoteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ValidDrivers lists the registered SQLite driver names.
var ValidDrivers = []string{"sqlite", "sqlite3"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validDriver := false
	for _, d := range ValidDrivers {
		if c.Storage.Driver == d {
			validDriver = true
			break
		}
	}
	if !validDriver {
		return fmt.Errorf("invalid storage driver: %s (valid: %v)", c.Storage.Driver, ValidDrivers)
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path must be set")
	}

	if c.Remote.FetchConcurrency < 1 {
		return fmt.Errorf("remote.fetch_concurrency must be at least 1, got %d", c.Remote.FetchConcurrency)
	}
	if c.Remote.APIBaseURL != "" {
		if _, err := url.ParseRequestURI(c.Remote.APIBaseURL); err != nil {
			return fmt.Errorf("invalid remote.api_base_url: %w", err)
		}
	}

	return nil
}

// HasRemote reports whether a repository URL and token are both configured.
func (c *Config) HasRemote() bool {
	return c.Remote.RepoURL != "" && c.Remote.Token != ""
}
