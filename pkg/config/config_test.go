package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Provider.MaxPages != 10 {
		t.Errorf("Expected default max pages to be 10, got %d", config.Provider.MaxPages)
	}

	if config.Provider.PageSize != 1000 {
		t.Errorf("Expected default page size to be 1000, got %d", config.Provider.PageSize)
	}

	if config.Poll.Interval != 5*time.Second {
		t.Errorf("Expected default poll interval to be 5s, got %s", config.Poll.Interval)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TWITTER_BEARER_TOKEN", "test-token")
	t.Setenv("MAX_PAGES", "3")
	t.Setenv("XFOLLOWERS_POLL_INTERVAL", "250ms")
	t.Setenv("XFOLLOWERS_STORAGE_BACKEND", "SQLite")
	t.Setenv("XFOLLOWERS_LOG_LEVEL", "debug")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Provider.BearerToken != "test-token" {
		t.Errorf("Expected bearer token to be test-token, got %s", config.Provider.BearerToken)
	}
	if config.Provider.MaxPages != 3 {
		t.Errorf("Expected max pages to be 3, got %d", config.Provider.MaxPages)
	}
	if config.Poll.Interval != 250*time.Millisecond {
		t.Errorf("Expected poll interval to be 250ms, got %s", config.Poll.Interval)
	}
	if config.Storage.Backend != "sqlite" {
		t.Errorf("Expected storage backend to be sqlite, got %s", config.Storage.Backend)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvPrefersPrefixedToken(t *testing.T) {
	t.Setenv("TWITTER_BEARER_TOKEN", "bare")
	t.Setenv("XFOLLOWERS_BEARER_TOKEN", "prefixed")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}
	if config.Provider.BearerToken != "prefixed" {
		t.Errorf("Expected prefixed token to win, got %s", config.Provider.BearerToken)
	}
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("MAX_PAGES", "ten")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err == nil {
		t.Error("Expected error for non-numeric MAX_PAGES")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "zero max pages", mutate: func(c *Config) { c.Provider.MaxPages = 0 }, wantError: true},
		{name: "page size above provider max", mutate: func(c *Config) { c.Provider.PageSize = 1001 }, wantError: true},
		{name: "zero poll interval", mutate: func(c *Config) { c.Poll.Interval = 0 }, wantError: true},
		{name: "redis without url", mutate: func(c *Config) { c.Storage.Backend = "redis" }, wantError: true},
		{name: "redis with url", mutate: func(c *Config) {
			c.Storage.Backend = "redis"
			c.Storage.RedisURL = "redis://localhost:6379/0"
		}},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "etcd" }, wantError: true},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "invalid" }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	content := `
provider:
  max_pages: 4
  page_size: 200
poll:
  endpoint: http://runs.internal:9000
  interval: 2s
storage:
  backend: sqlite
  path: /tmp/xf.db
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if config.Provider.MaxPages != 4 {
		t.Errorf("Expected max pages 4, got %d", config.Provider.MaxPages)
	}
	if config.Poll.Endpoint != "http://runs.internal:9000" {
		t.Errorf("Expected endpoint from file, got %s", config.Poll.Endpoint)
	}
	if config.Poll.Interval != 2*time.Second {
		t.Errorf("Expected interval 2s, got %s", config.Poll.Interval)
	}
	if config.Storage.Backend != "sqlite" {
		t.Errorf("Expected sqlite backend, got %s", config.Storage.Backend)
	}
	// Untouched values keep their defaults
	if config.Provider.BaseURL != "https://api.twitter.com" {
		t.Errorf("Expected default base URL, got %s", config.Provider.BaseURL)
	}
}

func TestLoadPrecedence(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("provider:\n  max_pages: 4\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("MAX_PAGES", "6")

	config, err := Load(configPath, map[string]interface{}{"max-pages": 8})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Provider.MaxPages != 8 {
		t.Errorf("Expected flag value 8 to win, got %d", config.Provider.MaxPages)
	}

	config, err = Load(configPath, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Provider.MaxPages != 6 {
		t.Errorf("Expected env value 6 to win over file, got %d", config.Provider.MaxPages)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := DefaultConfig()
	config.Provider.MaxPages = 7
	config.Provider.BearerToken = "secret"
	if err := config.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Provider.MaxPages != 7 {
		t.Errorf("Expected max pages 7, got %d", loaded.Provider.MaxPages)
	}
}
