package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/officehub/internal/logging"
	"github.com/spf13/pflag"
)

// Config holds runtime settings for the hubcli client.
//
// Fields:
//   - APIURL: base URL of the employee hub REST API, including the /api prefix.
//   - DatabasePath: SQLite file holding the persisted session.
//   - RequestTimeout: upper bound for a single HTTP call.
//   - LogLevel / LogFormat: see logging.New.
//   - Plain: disable the TUI and huh forms even on a terminal.
type Config struct {
	APIURL         string
	DatabasePath   string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
	Plain          bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://localhost:5000/api"
	c.DatabasePath = "officehub.db"
	c.RequestTimeout = 30 * time.Second
	c.LogLevel = "warn"
	c.LogFormat = logging.FormatText
	c.Plain = false
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url %q", c.APIURL)
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return errors.New("database path must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case logging.FormatText, logging.FormatJSON, logging.FormatZap:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// Load constructs a Config, applies defaults, then overlays values from the
// JSON file named by --config (if any), HUB_* environment variables and the
// flags in fs that were set explicitly. Later sources take precedence over
// earlier ones. fs must have been populated by BindFlags and parsed.
func Load(fs *pflag.FlagSet, lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, err
	}
	if err := parseJSON(cfg, path); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
