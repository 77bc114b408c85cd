package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_RequiresStoreURL(t *testing.T) {
	t.Setenv("STORE_URL", "")
	t.Setenv("STORE_KEY", "secret")

	_, err := Load("")
	if !errors.Is(err, ErrMissingStoreURL) {
		t.Fatalf("Load() error = %v, want %v", err, ErrMissingStoreURL)
	}
}

func TestLoad_RequiresStoreKey(t *testing.T) {
	t.Setenv("STORE_URL", "https://db.example.com")
	t.Setenv("STORE_KEY", "")

	_, err := Load("")
	if !errors.Is(err, ErrMissingStoreKey) {
		t.Fatalf("Load() error = %v, want %v", err, ErrMissingStoreKey)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_URL", "https://db.example.com")
	t.Setenv("STORE_KEY", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CRAWL_MAX_PAGES", "3")
	t.Setenv("CRAWL_TIMEOUT", "5s")
	t.Setenv("CRAWL_SCHEDULE", "@every 1h")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Crawl.MaxPages != 3 {
		t.Errorf("MaxPages = %d, want 3", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Crawl.Timeout)
	}
	if cfg.Schedule.Cron != "@every 1h" {
		t.Errorf("Cron = %q, want @every 1h", cfg.Schedule.Cron)
	}
	if cfg.Server.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.Server.LogLevel)
	}
	if cfg.Crawl.Selectors.ListingAnchors == "" {
		t.Error("default selectors should be populated")
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := []byte(`
store:
  driver: postgres
  url: postgres://crawler@localhost:5432/jobs
  key: from-file
crawl:
  page_size: 10
  selectors:
    title: h3.subject
`)
	if err := os.WriteFile(path, yml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STORE_URL", "")
	t.Setenv("STORE_KEY", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Store.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres", cfg.Store.Driver)
	}
	if cfg.Store.Key != "from-env" {
		t.Errorf("Key = %q, want env value to win", cfg.Store.Key)
	}
	if cfg.Crawl.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.Crawl.PageSize)
	}
	if cfg.Crawl.Selectors.Title != "h3.subject" {
		t.Errorf("Title selector = %q, want h3.subject", cfg.Crawl.Selectors.Title)
	}
	// fields absent from the file keep their defaults
	if cfg.Crawl.Selectors.ListingAnchors != DefaultSelectors().ListingAnchors {
		t.Errorf("ListingAnchors = %q, want default", cfg.Crawl.Selectors.ListingAnchors)
	}
}
