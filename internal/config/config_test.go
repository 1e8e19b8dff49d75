package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/csheth/artscout/internal/artic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artscout.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBase != artic.DefaultBaseURL {
		t.Fatalf("APIBase = %q", cfg.APIBase)
	}
	if cfg.RetainPages != 3 || cfg.RequestsPerMinute != 60 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if filepath.Base(cfg.FavoritesPath) != "savedArtworks.json" {
		t.Fatalf("FavoritesPath = %q", cfg.FavoritesPath)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"api_base: http://localhost:9999/api/v1",
		"retain_pages: 5",
		"request_timeout: 45s",
		"favorites_path: /tmp/artscout/favs.db",
	}, "\n"))
	t.Setenv("ARTSCOUT_RETAIN_PAGES", "7")
	t.Setenv("ARTSCOUT_USER_AGENT", "tester (qa@example.com)")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBase != "http://localhost:9999/api/v1" {
		t.Fatalf("APIBase = %q", cfg.APIBase)
	}
	if cfg.RetainPages != 7 {
		t.Fatalf("RetainPages = %d, want env override 7", cfg.RetainPages)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Fatalf("RequestTimeout = %s", cfg.RequestTimeout)
	}
	if cfg.FavoritesPath != "/tmp/artscout/favs.db" {
		t.Fatalf("FavoritesPath = %q", cfg.FavoritesPath)
	}
	if cfg.UserAgent != "tester (qa@example.com)" {
		t.Fatalf("UserAgent = %q", cfg.UserAgent)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load() accepted a missing file")
	}
	if _, err := Load(writeConfig(t, "retain_pages: [oops")); err == nil {
		t.Fatalf("Load() accepted malformed YAML")
	}
	if _, err := Load(writeConfig(t, "retain_pages: -2")); err == nil {
		t.Fatalf("Load() accepted a negative retain_pages")
	}

	t.Setenv("ARTSCOUT_REQUESTS_PER_MINUTE", "lots")
	if _, err := Load(""); err == nil {
		t.Fatalf("Load() accepted a non-numeric env override")
	}
}
