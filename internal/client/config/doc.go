// Package config loads runtime configuration for the hubcli client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or --config.
//  3. HUB_* environment variables, after LoadEnvFile has read .env.
//  4. Command-line flags that were set explicitly.
//
// Supported flags
//
//	-a, --api-url string     base URL of the API (default http://localhost:5000/api)
//	    --db string          session database path (default officehub.db)
//	-t, --timeout duration   per-request timeout (default 30s)
//	    --log-level string   debug, info, warn, error (default warn)
//	    --log-format string  text, json, zap (default text)
//	    --plain              line-based prompts only
//
// # JSON schema
//
// request_timeout uses timex.Duration, so it can be a string like "15s" or
// integer nanoseconds. Keys that are absent keep their previous value:
//
//	{
//	  "api_url": "https://hub.example.com/api",
//	  "database_path": "/var/lib/officehub/session.db",
//	  "request_timeout": "15s",
//	  "log_level": "info",
//	  "log_format": "json",
//	  "plain": false
//	}
package config
