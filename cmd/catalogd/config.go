package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the daemon configuration.
type Config struct {
	Addr     string        `mapstructure:"addr"`
	BaseURL  string        `mapstructure:"base_url"`
	PageSize int           `mapstructure:"page_size"`
	Store    StoreConfig   `mapstructure:"store"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// StoreConfig selects and configures the durable key/value backend.
type StoreConfig struct {
	// Backend is one of "bolt", "redis", "memory".
	Backend   string `mapstructure:"backend"`
	BoltPath  string `mapstructure:"bolt_path"`
	RedisAddr string `mapstructure:"redis_addr"`
}

// LoggingConfig holds log output configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// loadConfig reads config.yaml from the working directory (if present)
// with CATALOG_* environment variables taking precedence.
func loadConfig() (Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("CATALOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range []string{"addr", "base_url", "page_size", "store.backend", "store.bolt_path", "store.redis_addr", "logging.level", "logging.pretty"} {
		_ = viper.BindEnv(key)
	}

	viper.SetDefault("addr", ":8080")
	viper.SetDefault("page_size", 6)
	viper.SetDefault("store.backend", "bolt")
	viper.SetDefault("store.bolt_path", "catalogd.db")
	viper.SetDefault("store.redis_addr", "localhost:6379")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.pretty", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.BaseURL == "" {
		return Config{}, fmt.Errorf("base_url is required (set CATALOG_BASE_URL)")
	}
	return cfg, nil
}
