// Package config loads colonysim settings from a YAML file, COLONY_ environment
// variables and a .env file, in that order of increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/engine"
)

// EnvPrefix prefixes every environment override, e.g. COLONY_SIM_MOVE_EVERY.
const EnvPrefix = "COLONY"

// Config is the main configuration struct combining all sub-configs.
type Config struct {
	// Scenario file; empty runs the built-in scenario.
	Scenario string `mapstructure:"scenario"`

	Sim      engine.Config  `mapstructure:"sim"`
	Tuning   agents.Tuning  `mapstructure:"tuning"`
	Limits   colony.Limits  `mapstructure:"limits"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`

	// Bearer token for the admin endpoints. Empty disables them.
	AdminToken string `mapstructure:"admin_token"`

	// Admin requests per second and burst.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gt=0"`
	Burst     int     `mapstructure:"burst" validate:"min=1"`

	// How often the event stream polls for new events.
	StreamInterval time.Duration `mapstructure:"stream_interval" validate:"min=10ms"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`

	// Ticks between saves; zero saves only on shutdown.
	AutosaveEvery uint64 `mapstructure:"autosave_every"`

	// Compressed snapshots kept; older ones are pruned.
	KeepSnapshots int `mapstructure:"keep_snapshots" validate:"min=1"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Log format: json, text
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// Load reads configuration with priority:
// 1. Environment variables (highest priority)
// 2. Config file (colony.yaml)
// 3. Defaults (lowest priority)
func Load(configPath string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		// An explicit path must exist; only the search may come up empty.
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("colony")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: env vars and defaults only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration with nothing overridden.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default configuration does not decode: %v", err))
	}
	return &cfg
}
