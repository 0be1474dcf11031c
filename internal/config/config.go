package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	ConfigPathEnvVar  = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

type Config struct {
	Port          string `koanf:"port"`
	AllowedOrigin string `koanf:"allowed_origin"`

	DatabaseURL   string `koanf:"database_url"`
	SQLitePath    string `koanf:"sqlite_path"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	CatalogPath string `koanf:"catalog_path"`
	CatalogSize int    `koanf:"catalog_size"`
	CatalogSeed int64  `koanf:"catalog_seed"`

	SuggestionDelayMS         int     `koanf:"suggestion_delay_ms"`
	SuggestionFailureRate     float64 `koanf:"suggestion_failure_rate"`
	SuggestionCacheTTLSeconds int     `koanf:"suggestion_cache_ttl_seconds"`
	FavoriteAttribution       string  `koanf:"favorite_attribution"`

	AuthSecret            string `koanf:"auth_secret"`
	AccessTokenTTLMinutes int    `koanf:"access_token_ttl_minutes"`
	LoginRatePerMinute    int    `koanf:"login_rate_per_minute"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

func defaultConfig() Config {
	return Config{
		Port:                      "8080",
		AllowedOrigin:             "http://127.0.0.1:3000",
		CatalogSize:               60,
		CatalogSeed:               20240611,
		SuggestionDelayMS:         800,
		SuggestionFailureRate:     0.10,
		SuggestionCacheTTLSeconds: 300,
		FavoriteAttribution:       "catalog",
		AccessTokenTTLMinutes:     480,
		LoginRatePerMinute:        10,
		LogLevel:                  "info",
		LogFormat:                 "json",
	}
}

// Load layers struct defaults, an optional YAML file and the environment.
// Environment variables win: DATABASE_URL sets database_url.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// normalize falls back to defaults for out-of-range tunables instead of
// refusing to start.
func (c *Config) normalize() {
	defaults := defaultConfig()
	c.AuthSecret = strings.TrimSpace(c.AuthSecret)
	c.FavoriteAttribution = strings.ToLower(strings.TrimSpace(c.FavoriteAttribution))
	if c.Port == "" {
		c.Port = defaults.Port
	}
	if c.CatalogSize < 1 {
		c.CatalogSize = defaults.CatalogSize
	}
	if c.SuggestionDelayMS < 0 {
		c.SuggestionDelayMS = 0
	}
	if c.SuggestionCacheTTLSeconds < 1 {
		c.SuggestionCacheTTLSeconds = defaults.SuggestionCacheTTLSeconds
	}
	if c.AccessTokenTTLMinutes < 1 {
		c.AccessTokenTTLMinutes = defaults.AccessTokenTTLMinutes
	}
	if c.LoginRatePerMinute < 1 {
		c.LoginRatePerMinute = defaults.LoginRatePerMinute
	}
}

func (c Config) Validate() error {
	if c.SuggestionFailureRate < 0 || c.SuggestionFailureRate > 1 {
		return fmt.Errorf("suggestion_failure_rate must be within [0, 1], got %v", c.SuggestionFailureRate)
	}
	switch c.FavoriteAttribution {
	case "catalog", "history":
	default:
		return fmt.Errorf("favorite_attribution must be catalog or history, got %q", c.FavoriteAttribution)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) SuggestionDelay() time.Duration {
	return time.Duration(c.SuggestionDelayMS) * time.Millisecond
}

func (c Config) SuggestionCacheTTL() time.Duration {
	return time.Duration(c.SuggestionCacheTTLSeconds) * time.Second
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}
