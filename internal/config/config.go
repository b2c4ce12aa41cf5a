package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListen   = "127.0.0.1:8080"
	DefaultTimezone = "Local"
	DefaultTick     = "* * * * *"

	DriverSQLite = "sqlite"
	DriverDiskv  = "diskv"
)

// ICSSource is a calendar feed whose weekly events can be imported as anchors.
type ICSSource struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is "sqlite" (default) or "diskv".
	Driver string `yaml:"driver" json:"driver"`
	// Path is the sqlite database file or the diskv base directory.
	Path string `yaml:"path" json:"path"`
}

// ParserConfig configures the natural-language reminder parser.
type ParserConfig struct {
	Endpoint       string `yaml:"endpoint" json:"endpoint"`
	Model          string `yaml:"model" json:"model"`
	APIKeyEnv      string `yaml:"api_key_env" json:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// CaptureConfig controls agenda PNG snapshots.
type CaptureConfig struct {
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
	Output string `yaml:"output" json:"output"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API and agenda page.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used for "today" and wall-clock math.
	// "Local" uses the host zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// Tick is the cron expression driving reminder evaluation in serve mode.
	Tick string `yaml:"tick" json:"tick"`

	Storage StorageConfig `yaml:"storage" json:"storage"`
	Parser  ParserConfig  `yaml:"parser" json:"parser"`
	Capture CaptureConfig `yaml:"capture" json:"capture"`

	ICS         []ICSSource `yaml:"ics" json:"ics"`
	ICSCacheDir string      `yaml:"ics_cache_dir" json:"ics_cache_dir"`

	// BasicAuth, if set with both fields, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values so partially-filled files still work.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	// An unparseable tick would stop the serve loop from ever firing.
	if _, err := cron.ParseStandard(c.Tick); c.Tick == "" || err != nil {
		c.Tick = DefaultTick
	}

	switch c.Storage.Driver {
	case DriverSQLite, DriverDiskv:
	default:
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.Path == "" {
		if c.Storage.Driver == DriverDiskv {
			c.Storage.Path = "./var/anchorcal-data"
		} else {
			c.Storage.Path = "./var/anchorcal.db"
		}
	}

	if c.Parser.Endpoint == "" {
		c.Parser.Endpoint = "https://api.anthropic.com/v1/messages"
	}
	if c.Parser.Model == "" {
		c.Parser.Model = "claude-sonnet-4-20250514"
	}
	if c.Parser.APIKeyEnv == "" {
		c.Parser.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	if c.Parser.TimeoutSeconds <= 0 {
		c.Parser.TimeoutSeconds = 20
	}

	if c.Capture.Width <= 0 {
		c.Capture.Width = 984
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = 1304
	}
	if c.Capture.Output == "" {
		c.Capture.Output = "./var/agenda.png"
	}

	if c.ICS == nil {
		c.ICS = []ICSSource{}
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = "./var/ics-cache"
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == DefaultTimezone {
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
// A missing file is created with defaults (0600) and the defaults are
// returned. An existing file is unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg atomically (temp file + rename) with 0600 permissions.
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

	tmp, err := os.CreateTemp(dir, ".anchorcal-config-*.tmp")
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

func (c *Config) Save(path string) error {
	return Save(path, c)
}
