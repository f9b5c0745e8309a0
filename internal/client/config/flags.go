package config

import (
	"github.com/spf13/pflag"
)

const (
	FlagConfig    = "config"
	FlagAPIURL    = "api-url"
	FlagDatabase  = "db"
	FlagTimeout   = "timeout"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
	FlagPlain     = "plain"
)

// BindFlags registers the configuration flags on fs. Defaults shown in help
// come from LoadDefaults; the values are only applied by Load when a flag is
// set explicitly, so JSON and environment settings are not masked.
func BindFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON config file")
	fs.StringP(FlagAPIURL, "a", d.APIURL, "base URL of the employee hub API")
	fs.String(FlagDatabase, d.DatabasePath, "path to the local session database")
	fs.DurationP(FlagTimeout, "t", d.RequestTimeout, "timeout for a single API request")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(FlagLogFormat, d.LogFormat, "log format: text, json, zap")
	fs.Bool(FlagPlain, d.Plain, "line-based prompts instead of forms and the TUI")
}

// parseFlags copies explicitly set flags into cfg.
func parseFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagAPIURL:
			cfg.APIURL, err = fs.GetString(f.Name)
		case FlagDatabase:
			cfg.DatabasePath, err = fs.GetString(f.Name)
		case FlagTimeout:
			cfg.RequestTimeout, err = fs.GetDuration(f.Name)
		case FlagLogLevel:
			cfg.LogLevel, err = fs.GetString(f.Name)
		case FlagLogFormat:
			cfg.LogFormat, err = fs.GetString(f.Name)
		case FlagPlain:
			cfg.Plain, err = fs.GetBool(f.Name)
		}
	})
	return err
}
