package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the follower scraper, run server and
// trend history.
type Config struct {
	// X API access
	Provider ProviderConfig `yaml:"provider" json:"provider"`

	// Run server
	Server ServerConfig `yaml:"server" json:"server"`

	// Client-side polling of a run
	Poll PollConfig `yaml:"poll" json:"poll"`

	// Provider request budget
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Timeline and override persistence
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// CSV export location
	Output OutputConfig `yaml:"output" json:"output"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ProviderConfig holds X API settings
type ProviderConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	BearerToken string        `yaml:"bearer_token" json:"-"`
	PageSize    int           `yaml:"page_size" json:"page_size"`
	MaxPages    int           `yaml:"max_pages" json:"max_pages"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// ServerConfig holds the run server settings
type ServerConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	Workers      int           `yaml:"workers" json:"workers"`
	RunRetention time.Duration `yaml:"run_retention" json:"run_retention"`
	AllowOrigin  string        `yaml:"allow_origin" json:"allow_origin"`
	// MaxStarts runs may be started per StartWindow
	MaxStarts   int           `yaml:"max_starts" json:"max_starts"`
	StartWindow time.Duration `yaml:"start_window" json:"start_window"`
}

// PollConfig holds the orchestrator settings
type PollConfig struct {
	Endpoint string        `yaml:"endpoint" json:"endpoint"`
	Interval time.Duration `yaml:"interval" json:"interval"`
	// Deadline bounds a whole run; zero waits until the run finishes
	Deadline time.Duration `yaml:"deadline" json:"deadline"`
}

// RateLimitConfig holds the provider token bucket settings
type RateLimitConfig struct {
	Requests int           `yaml:"requests" json:"requests"`
	Window   time.Duration `yaml:"window" json:"window"`
}

// StorageConfig selects the key-value backend
type StorageConfig struct {
	Backend  string `yaml:"backend" json:"backend"`
	Path     string `yaml:"path" json:"path"`
	RedisURL string `yaml:"redis_url" json:"redis_url"`
}

// OutputConfig holds export settings
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:  "https://api.twitter.com",
			PageSize: 1000,
			MaxPages: 10,
			Timeout:  30 * time.Second,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			Workers:      2,
			RunRetention: time.Hour,
			AllowOrigin:  "*",
			MaxStarts:    10,
			StartWindow:  time.Minute,
		},
		Poll: PollConfig{
			Endpoint: "http://localhost:8080",
			Interval: 5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Requests: 15,
			Window:   15 * time.Minute,
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		Output: OutputConfig{
			Directory: ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Unprefixed TWITTER_BEARER_TOKEN and MAX_PAGES are accepted too
	if token := firstEnv("XFOLLOWERS_BEARER_TOKEN", "TWITTER_BEARER_TOKEN"); token != "" {
		c.Provider.BearerToken = token
	}
	if base := os.Getenv("XFOLLOWERS_API_BASE_URL"); base != "" {
		c.Provider.BaseURL = base
	}

	var errs []error
	if v := firstEnv("XFOLLOWERS_MAX_PAGES", "MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_PAGES: %w", err))
		} else {
			c.Provider.MaxPages = n
		}
	}
	if v := os.Getenv("XFOLLOWERS_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("XFOLLOWERS_POLL_INTERVAL: %w", err))
		} else {
			c.Poll.Interval = d
		}
	}
	if v := os.Getenv("XFOLLOWERS_ENDPOINT"); v != "" {
		c.Poll.Endpoint = v
	}
	if v := os.Getenv("XFOLLOWERS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("XFOLLOWERS_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("XFOLLOWERS_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("XFOLLOWERS_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("XFOLLOWERS_OUTPUT_DIR"); v != "" {
		c.Output.Directory = v
	}
	if v := os.Getenv("XFOLLOWERS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".xfollowers.yaml",
		".xfollowers.yml",
		filepath.Join(home, ".config", "xfollowers", "config.yaml"),
		filepath.Join(home, ".xfollowers.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. The bearer token is not
// required here since only the server needs it.
func (c *Config) Validate() error {
	var errs []error

	if c.Provider.BaseURL == "" {
		errs = append(errs, errors.New("provider base URL is required"))
	}
	if c.Provider.PageSize <= 0 || c.Provider.PageSize > 1000 {
		errs = append(errs, errors.New("page size must be between 1 and 1000"))
	}
	if c.Provider.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}
	if c.Provider.Timeout <= 0 {
		errs = append(errs, errors.New("provider timeout must be positive"))
	}

	if c.Server.Workers <= 0 {
		errs = append(errs, errors.New("server workers must be positive"))
	}
	if c.Server.MaxStarts < 0 || c.Server.StartWindow < 0 {
		errs = append(errs, errors.New("server start budget cannot be negative"))
	}

	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.Poll.Deadline < 0 {
		errs = append(errs, errors.New("poll deadline cannot be negative"))
	}

	if c.RateLimit.Requests <= 0 {
		errs = append(errs, errors.New("rate limit requests must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}

	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
	case "redis":
		if c.Storage.RedisURL == "" {
			errs = append(errs, errors.New("redis storage requires redis_url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in flags are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["endpoint"].(string); ok && v != "" {
		c.Poll.Endpoint = v
	}
	if v, ok := flags["poll-interval"].(time.Duration); ok && v > 0 {
		c.Poll.Interval = v
	}
	if v, ok := flags["deadline"].(time.Duration); ok && v >= 0 {
		c.Poll.Deadline = v
	}
	if v, ok := flags["addr"].(string); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := flags["max-pages"].(int); ok && v > 0 {
		c.Provider.MaxPages = v
	}
	if v, ok := flags["storage"].(string); ok && v != "" {
		c.Storage.Backend = v
	}
	if v, ok := flags["storage-path"].(string); ok && v != "" {
		c.Storage.Path = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence:
// flags > environment > .env file > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xfollowers.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
