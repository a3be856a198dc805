// Package config loads the application configuration from file and
// environment variables.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "sealpay/internal/shared/config"
)

type Config struct {
	Server     sharedConfig.ServerConfig     `mapstructure:"server"`
	Database   sharedConfig.DatabaseConfig   `mapstructure:"database"`
	Logger     sharedConfig.LoggerConfig     `mapstructure:"logger"`
	Redis      sharedConfig.RedisConfig      `mapstructure:"redis"`
	NATS       sharedConfig.NATSConfig       `mapstructure:"nats"`
	Payment    sharedConfig.PaymentConfig    `mapstructure:"payment"`
	RateOracle sharedConfig.RateOracleConfig `mapstructure:"rate_oracle"`
	Threshold  sharedConfig.ThresholdConfig  `mapstructure:"threshold"`
	Auth       sharedConfig.AuthConfig       `mapstructure:"auth"`
	Sweeper    sharedConfig.SweeperConfig    `mapstructure:"sweeper"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("SEALPAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "sealpay_dev")
	viper.SetDefault("database.path", "sealpay.db")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// NATS defaults (empty URL disables event publishing)
	viper.SetDefault("nats.url", "")

	// Payment defaults
	viper.SetDefault("payment.intent_window", "30m")
	viper.SetDefault("payment.amount_tolerance_bps", 100)
	viper.SetDefault("payment.reorg_depth", 12)
	viper.SetDefault("payment.enabled_currencies", []string{"MATIC", "ETH", "BTC", "USDC"})

	// Rate oracle defaults
	viper.SetDefault("rate_oracle.provider", "coingecko")
	viper.SetDefault("rate_oracle.fiat_code", "usd")

	// Threshold network defaults
	viper.SetDefault("threshold.mode", "coordinator")
	viper.SetDefault("threshold.request_timeout", "10s")

	// Auth defaults
	viper.SetDefault("auth.proof_secret", "change-me-in-production")

	// Sweeper defaults
	viper.SetDefault("sweeper.interval", "30s")
}
