// Package config resolves artscout settings from defaults, an optional YAML
// file and ARTSCOUT_* environment variables, in that order of precedence
// (later wins). Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/csheth/artscout/internal/artic"
	"github.com/csheth/artscout/internal/window"
)

const envPrefix = "ARTSCOUT_"

// Config holds every runtime setting.
type Config struct {
	APIBase           string        `yaml:"api_base"`
	IIIFBase          string        `yaml:"iiif_base"`
	UserAgent         string        `yaml:"user_agent"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	FavoritesPath     string        `yaml:"favorites_path"`
	DownloadDir       string        `yaml:"download_dir"`
	RetainPages       int           `yaml:"retain_pages"`
	LogFile           string        `yaml:"log_file"`
	LogLevel          string        `yaml:"log_level"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		APIBase:           artic.DefaultBaseURL,
		IIIFBase:          artic.DefaultIIIFURL,
		RequestsPerMinute: 60,
		RequestTimeout:    20 * time.Second,
		FavoritesPath:     filepath.Join(dataDir, "savedArtworks.json"),
		DownloadDir:       filepath.Join(dataDir, "images"),
		RetainPages:       window.DefaultRetain,
		LogLevel:          "info",
	}
}

// Load resolves the configuration. An empty path skips the file; a named
// file that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.merge(fromFile)
	return nil
}

// merge copies every non-zero field of other over c.
func (c *Config) merge(other Config) {
	if other.APIBase != "" {
		c.APIBase = other.APIBase
	}
	if other.IIIFBase != "" {
		c.IIIFBase = other.IIIFBase
	}
	if other.UserAgent != "" {
		c.UserAgent = other.UserAgent
	}
	if other.RequestsPerMinute != 0 {
		c.RequestsPerMinute = other.RequestsPerMinute
	}
	if other.RequestTimeout != 0 {
		c.RequestTimeout = other.RequestTimeout
	}
	if other.FavoritesPath != "" {
		c.FavoritesPath = expandHome(other.FavoritesPath)
	}
	if other.DownloadDir != "" {
		c.DownloadDir = expandHome(other.DownloadDir)
	}
	if other.RetainPages != 0 {
		c.RetainPages = other.RetainPages
	}
	if other.LogFile != "" {
		c.LogFile = expandHome(other.LogFile)
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

func (c *Config) applyEnv() error {
	var fromEnv Config
	fromEnv.APIBase = os.Getenv(envPrefix + "API_BASE")
	fromEnv.IIIFBase = os.Getenv(envPrefix + "IIIF_BASE")
	fromEnv.UserAgent = os.Getenv(envPrefix + "USER_AGENT")
	fromEnv.FavoritesPath = os.Getenv(envPrefix + "FAVORITES")
	fromEnv.DownloadDir = os.Getenv(envPrefix + "DOWNLOAD_DIR")
	fromEnv.LogFile = os.Getenv(envPrefix + "LOG_FILE")
	fromEnv.LogLevel = os.Getenv(envPrefix + "LOG_LEVEL")

	var err error
	if fromEnv.RequestsPerMinute, err = envInt(envPrefix + "REQUESTS_PER_MINUTE"); err != nil {
		return err
	}
	if fromEnv.RetainPages, err = envInt(envPrefix + "RETAIN_PAGES"); err != nil {
		return err
	}
	if raw := strings.TrimSpace(os.Getenv(envPrefix + "REQUEST_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("config: %sREQUEST_TIMEOUT: %w", envPrefix, err)
		}
		fromEnv.RequestTimeout = d
	}
	c.merge(fromEnv)
	return nil
}

// Validate rejects settings the client and window cannot work with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIBase) == "" {
		errs = append(errs, errors.New("api_base must not be empty"))
	}
	if c.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("requests_per_minute must be positive, got %d", c.RequestsPerMinute))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.RetainPages < 0 {
		errs = append(errs, fmt.Errorf("retain_pages must be positive, got %d", c.RetainPages))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func envInt(key string) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".artscout")
	}
	return filepath.Join(base, "artscout")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
