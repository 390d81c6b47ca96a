package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Retry  RetryConfig  `mapstructure:"retry"`
	Wallet WalletConfig `mapstructure:"wallet"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// APIConfig describes the remote marketplace endpoint.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Key     string        `mapstructure:"key"` // sent as X-API-Key on every request
	Timeout time.Duration `mapstructure:"timeout"`
}

// RetryConfig bounds retries of transient marketplace failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

type WalletConfig struct {
	Path string `mapstructure:"path"` // default wallet file location
}

// ServerConfig configures the `aipseo serve` agent surface.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address string.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// PassphraseEnv is the environment variable consulted for the wallet
// passphrase. It is read directly, never through a command-line flag, so the
// passphrase cannot leak into shell history or process listings.
const PassphraseEnv = "AIPSEO_PASSPHRASE"

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: AIPSEO.
// Nested keys use underscore: AIPSEO_API_BASE_URL, AIPSEO_WALLET_PATH, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("api.base_url", "https://api.aipseo.com/v1")
	v.SetDefault("api.key", "")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.backoff_base", "500ms")
	v.SetDefault("wallet.path", ".wallet.json")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8321)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("aipseo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/aipseo")
	}

	// Environment variables: AIPSEO_API_BASE_URL -> api.base_url
	v.SetEnvPrefix("AIPSEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
