// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads pwstrength settings from defaults, an optional YAML
// file and command-line flags, in that order of precedence.
package config

import (
	"net"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/pwstrength/internal/breach"
	"github.com/holomush/pwstrength/internal/history"
)

// Config is the complete pwstrength configuration.
type Config struct {
	Log      LogConfig      `koanf:"log" json:"log,omitempty"`
	API      APIConfig      `koanf:"api" json:"api,omitempty"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics,omitempty"`
	Breach   BreachConfig   `koanf:"breach" json:"breach,omitempty"`
	Database DatabaseConfig `koanf:"database" json:"database,omitempty"`
	History  HistoryConfig  `koanf:"history" json:"history,omitempty"`
}

// LogConfig controls log output.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
}

// APIConfig controls the HTTP API listener.
type APIConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

// MetricsConfig controls the metrics and health listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

// BreachConfig selects and tunes the breach checker.
type BreachConfig struct {
	Mode     string        `koanf:"mode" json:"mode,omitempty" jsonschema:"enum=local,enum=range"`
	Endpoint string        `koanf:"endpoint" json:"endpoint,omitempty"`
	Timeout  time.Duration `koanf:"timeout" json:"timeout,omitempty"`
	Attempts int           `koanf:"attempts" json:"attempts,omitempty" jsonschema:"minimum=1"`
	CacheTTL time.Duration `koanf:"cache_ttl" json:"cache_ttl,omitempty"`
}

// DatabaseConfig locates the password history database.
type DatabaseConfig struct {
	URL string `koanf:"url" json:"url,omitempty"`
}

// HistoryConfig controls password reuse checks.
type HistoryConfig struct {
	Depth int `koanf:"depth" json:"depth,omitempty" jsonschema:"minimum=1"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:     LogConfig{Format: "json"},
		API:     APIConfig{Addr: "127.0.0.1:8080"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Breach: BreachConfig{
			Mode:     string(breach.ModeLocal),
			Endpoint: breach.DefaultEndpoint,
			Timeout:  breach.DefaultTimeout,
			Attempts: breach.DefaultAttempts,
			CacheTTL: breach.DefaultCacheTTL,
		},
		History: HistoryConfig{Depth: history.DefaultDepth},
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"log-format":       "log.format",
	"api-addr":         "api.addr",
	"metrics-addr":     "metrics.addr",
	"breach-mode":      "breach.mode",
	"breach-endpoint":  "breach.endpoint",
	"breach-timeout":   "breach.timeout",
	"breach-attempts":  "breach.attempts",
	"breach-cache-ttl": "breach.cache_ttl",
	"database-url":     "database.url",
	"history-depth":    "history.depth",
}

// RegisterFlags adds the configuration flags to fs with their defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("api-addr", d.API.Addr, "HTTP API listen address")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics and health listen address (empty disables)")
	fs.String("breach-mode", d.Breach.Mode, "breach checker (local or range)")
	fs.String("breach-endpoint", d.Breach.Endpoint, "range API base URL")
	fs.Duration("breach-timeout", d.Breach.Timeout, "range API request timeout")
	fs.Int("breach-attempts", d.Breach.Attempts, "range API attempts per lookup")
	fs.Duration("breach-cache-ttl", d.Breach.CacheTTL, "range API response cache lifetime")
	fs.String("database-url", d.Database.URL, "PostgreSQL URL for password history")
	fs.Int("history-depth", d.History.Depth, "previous passwords checked for reuse")
}

// Load builds a Config. path may be empty; fs may be nil. Only flags that
// were set explicitly override the file.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateSchema(data); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	invalid := func(key string, value any, reason string) error {
		return oops.Code("CONFIG_INVALID").
			With("key", key).
			With("value", value).
			Errorf("%s: %s", key, reason)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid("log.format", c.Log.Format, "must be json or text")
	}
	if _, _, err := net.SplitHostPort(c.API.Addr); err != nil {
		return invalid("api.addr", c.API.Addr, "must be host:port")
	}
	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			return invalid("metrics.addr", c.Metrics.Addr, "must be host:port")
		}
	}
	switch breach.Mode(c.Breach.Mode) {
	case breach.ModeLocal, breach.ModeRange:
	default:
		return invalid("breach.mode", c.Breach.Mode, "must be local or range")
	}
	if c.Breach.Timeout <= 0 {
		return invalid("breach.timeout", c.Breach.Timeout, "must be positive")
	}
	if c.Breach.Attempts < 1 {
		return invalid("breach.attempts", c.Breach.Attempts, "must be at least 1")
	}
	if c.Breach.CacheTTL < 0 {
		return invalid("breach.cache_ttl", c.Breach.CacheTTL, "must not be negative")
	}
	if c.History.Depth < 1 {
		return invalid("history.depth", c.History.Depth, "must be at least 1")
	}
	return nil
}

// BreachOptions converts the breach section for breach.New.
func (c *Config) BreachOptions() breach.Options {
	return breach.Options{
		Mode:     breach.Mode(c.Breach.Mode),
		Endpoint: c.Breach.Endpoint,
		Timeout:  c.Breach.Timeout,
		Attempts: c.Breach.Attempts,
		CacheTTL: c.Breach.CacheTTL,
	}
}
