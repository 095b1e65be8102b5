package config

// Package config handles configuration loading for optionsgate.
// It supports YAML config files with environment variable overrides.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Provider   ProviderConfig   `mapstructure:"provider"   yaml:"provider"`
	Validation ValidationConfig `mapstructure:"validation" yaml:"validation"`
	Liquidity  LiquidityConfig  `mapstructure:"liquidity"  yaml:"liquidity"`
	News       NewsConfig       `mapstructure:"news"       yaml:"news"`
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// ProviderConfig holds market data provider settings.
type ProviderConfig struct {
	Name         string `mapstructure:"name"           yaml:"name"` // "polygon"
	APIKey       string `mapstructure:"api_key"        yaml:"api_key"`
	BaseURL      string `mapstructure:"base_url"       yaml:"base_url"`
	RateLimit    int    `mapstructure:"rate_limit"     yaml:"rate_limit"` // requests per minute
	CacheTTLSec  int    `mapstructure:"cache_ttl_sec"  yaml:"cache_ttl_sec"`
	MaxRetries   int    `mapstructure:"max_retries"    yaml:"max_retries"`
	TimeoutSec   int    `mapstructure:"timeout_sec"    yaml:"timeout_sec"`
}

// ValidationConfig holds validation engine settings.
type ValidationConfig struct {
	HistoryDays int `mapstructure:"history_days" yaml:"history_days"` // daily bars fetched for ATR/HV
}

// LiquidityConfig holds the liquidity filter thresholds.
type LiquidityConfig struct {
	MinScore      int     `mapstructure:"min_score"       yaml:"min_score"`
	MaxSpreadPct  float64 `mapstructure:"max_spread_pct"  yaml:"max_spread_pct"`
	MinQuality    string  `mapstructure:"min_quality"     yaml:"min_quality"` // "EXCELLENT", "GOOD", "FAIR", "POOR"
	RequireVolume bool    `mapstructure:"require_volume"  yaml:"require_volume"`
	RequireOI     bool    `mapstructure:"require_oi"      yaml:"require_oi"`
}

// NewsConfig holds headline fetching settings.
type NewsConfig struct {
	Enabled  bool `mapstructure:"enabled"   yaml:"enabled"`
	MaxItems int  `mapstructure:"max_items" yaml:"max_items"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"          yaml:"host"`
	Port        int      `mapstructure:"port"          yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"  yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.optionsgate/config.yaml (home directory)
//  3. /etc/optionsgate/config.yaml (system)
//
// Environment variables override config file values.
// Format: OPTIONSGATE_<SECTION>_<KEY>, e.g., OPTIONSGATE_PROVIDER_API_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".optionsgate"))
	v.AddConfigPath("/etc/optionsgate")

	v.SetEnvPrefix("OPTIONSGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("OPTIONSGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("provider.name", "polygon")
	v.SetDefault("provider.base_url", "https://api.polygon.io")
	v.SetDefault("provider.rate_limit", 100) // requests per minute
	v.SetDefault("provider.cache_ttl_sec", 60)
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.timeout_sec", 15)

	// Validation defaults
	v.SetDefault("validation.history_days", 45)

	// Liquidity defaults
	v.SetDefault("liquidity.min_score", 50)
	v.SetDefault("liquidity.max_spread_pct", 10.0)
	v.SetDefault("liquidity.min_quality", "FAIR")
	v.SetDefault("liquidity.require_volume", true)
	v.SetDefault("liquidity.require_oi", true)

	// News defaults
	v.SetDefault("news.enabled", true)
	v.SetDefault("news.max_items", 5)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("OPTIONSGATE_PROVIDER_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	// Common alternative used by other polygon tooling.
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("POLYGON_API_KEY")
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider API key not set (OPTIONSGATE_PROVIDER_API_KEY or POLYGON_API_KEY)")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid API port %d", c.API.Port)
	}
	switch c.Liquidity.MinQuality {
	case "EXCELLENT", "GOOD", "FAIR", "POOR":
	default:
		return fmt.Errorf("invalid liquidity.min_quality %q", c.Liquidity.MinQuality)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
