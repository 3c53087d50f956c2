// Package config resolves CLI settings from palette.yaml, PALETTE_* environment
// variables and command flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/palette/pkg/shortcut"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. PALETTE_LOG_LEVEL.
const EnvPrefix = "PALETTE"

// Config holds every setting the CLI understands.
type Config struct {
	// Actions is a definition file or directory.
	Actions  string         `mapstructure:"actions"`
	Tools    string         `mapstructure:"tools"`
	Log      LogConfig      `mapstructure:"log"`
	Shortcut ShortcutConfig `mapstructure:"shortcut"`
	Search   SearchConfig   `mapstructure:"search"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ShortcutConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type SearchConfig struct {
	Limit int `mapstructure:"limit"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type MetricsConfig struct {
	// Addr serves /metrics on its own listener. Empty mounts it on the HTTP server.
	Addr string `mapstructure:"addr"`
}

// RedisConfig selects the session store. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr   string        `mapstructure:"addr"`
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// SessionConfig protects the query text of stored sessions.
type SessionConfig struct {
	// EncryptionKey is a base64 AES-256 key. When set, queries are sealed at rest.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
	// Redact lists regular expressions; matching queries are never stored.
	Redact []string `mapstructure:"redact"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("actions", "actions.yaml")
	v.SetDefault("tools", "tools.yaml")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("shortcut.timeout", shortcut.DefaultTimeout)
	v.SetDefault("search.limit", 0)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.prefix", "palette:session:")
	v.SetDefault("redis.ttl", 24*time.Hour)
}

// New returns a viper instance with defaults and environment binding in place.
// File is an explicit config path; when empty, palette.{yaml,yml,toml,json} is
// searched in the working directory and $HOME/.config/palette.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("palette")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "palette"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// BindFlags lets the named flags override their config keys. Keys map to flag
// names, e.g. {"http.addr": "addr"}. Unknown flags are skipped.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

// Load decodes v into a Config.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Search.Limit < 0 {
		return Config{}, fmt.Errorf("search.limit must not be negative, got %d", cfg.Search.Limit)
	}
	return cfg, nil
}
