package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"eventplanner/internal/records"
)

// SyncURLEnv overrides sync.base_url when set.
const SyncURLEnv = "PLANNER_SYNC_URL"

// DefaultFeedURL is the published agenda sheet read when no feed is
// configured.
const DefaultFeedURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vRz2biu00IlItJudG7s6Xk-O7ItGJI_P4hVlrVyfCD2cYne7oxjN_ZSnShmbJdw8g/pub?gid=1113557791&single=true&output=csv"

// FeedConfig describes where the published spreadsheet export lives.
type FeedConfig struct {
	// URL is the published CSV export of the sheet.
	URL string `yaml:"url" json:"url"`
	// Path reads a local CSV file instead of URL. The file is watched for
	// changes while serving.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// CacheDir holds the ETag/Last-Modified cache. Empty disables it.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
	// TimeoutSeconds bounds a single fetch.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	// StaleOnError serves the cached body when a fetch fails.
	StaleOnError bool `yaml:"stale_on_error" json:"stale_on_error"`
}

// Timeout returns TimeoutSeconds as a duration.
func (f FeedConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

type StoreConfig struct {
	// Path is the SQLite database file. ":memory:" keeps nothing on disk.
	Path string `yaml:"path" json:"path"`
}

type SyncConfig struct {
	// BaseURL of the remote planner API. Empty disables sync.
	BaseURL string `yaml:"base_url" json:"base_url"`
}

type ExportConfig struct {
	// IncludeGaps adds gap records to exports.
	IncludeGaps bool `yaml:"include_gaps" json:"include_gaps"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone that decides what "today" is
	// (e.g. "America/Sao_Paulo").
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is the feed refresh schedule (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	Feed    FeedConfig        `yaml:"feed" json:"feed"`
	Headers records.HeaderSet `yaml:"headers" json:"headers"`
	Store   StoreConfig       `yaml:"store" json:"store"`
	Sync    SyncConfig        `yaml:"sync" json:"sync"`
	Export  ExportConfig      `yaml:"export" json:"export"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "America/Sao_Paulo",
		RefreshCron: "*/15 * * * *",
		Feed: FeedConfig{
			URL:            DefaultFeedURL,
			CacheDir:       "/var/lib/planner/feed-cache",
			TimeoutSeconds: 15,
		},
		Headers:   records.DefaultHeaders(),
		Store:     StoreConfig{Path: "/var/lib/planner/planner.db"},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if strings.TrimSpace(c.RefreshCron) == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.Feed.TimeoutSeconds <= 0 {
		c.Feed.TimeoutSeconds = def.Feed.TimeoutSeconds
	}
	c.Feed.URL = strings.TrimSpace(c.Feed.URL)
	if c.Feed.URL == "" && c.Feed.Path == "" {
		c.Feed.URL = def.Feed.URL
	}
	c.Headers = c.Headers.WithDefaults()
	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}
	c.Sync.BaseURL = strings.TrimRight(strings.TrimSpace(c.Sync.BaseURL), "/")
}

// ApplyEnv applies environment overrides on top of the file values.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(SyncURLEnv); ok {
		c.Sync.BaseURL = strings.TrimRight(strings.TrimSpace(v), "/")
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, err
	}
	return loc, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//
// Environment overrides are applied last in both cases and are never
// written back.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				cfg.ApplyEnv()
				return cfg, err
			}
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".planner-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
