package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver selects the database backend: "mysql" or "sqlite".
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	Path            string `mapstructure:"path"` // sqlite file path
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ChainConfig configures the client for one currency network.
// Mode is "rpc", "explorer" or "mock"; mock is an explicit configuration
// choice, never a runtime fallback.
type ChainConfig struct {
	Mode                  string        `mapstructure:"mode"`
	RPCURL                string        `mapstructure:"rpc_url"`
	ExplorerURL           string        `mapstructure:"explorer_url"`
	TokenContract         string        `mapstructure:"token_contract"`
	RequiredConfirmations int           `mapstructure:"required_confirmations"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
}

type PaymentConfig struct {
	DestinationAddresses map[string]string      `mapstructure:"destination_addresses"`
	EnabledCurrencies    []string               `mapstructure:"enabled_currencies"`
	IntentWindow         time.Duration          `mapstructure:"intent_window"`
	AmountToleranceBps   int64                  `mapstructure:"amount_tolerance_bps"`
	ReorgDepth           int                    `mapstructure:"reorg_depth"`
	Chains               map[string]ChainConfig `mapstructure:"chains"`
}

type RateOracleConfig struct {
	// Provider: "coingecko" or "fixed".
	Provider   string             `mapstructure:"provider"`
	FiatCode   string             `mapstructure:"fiat_code"`
	FixedRates map[string]float64 `mapstructure:"fixed_rates"`
}

type ThresholdConfig struct {
	// Mode: "coordinator" or "mock".
	Mode           string        `mapstructure:"mode"`
	CoordinatorURL string        `mapstructure:"coordinator_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type AuthConfig struct {
	ProofSecret string `mapstructure:"proof_secret"`
}

type SweeperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}
