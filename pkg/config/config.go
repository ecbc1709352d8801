package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the sync daemon configuration
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Chain          ChainConfig          `mapstructure:"chain"`
	Wallet         WalletConfig         `mapstructure:"wallet"`
	RetryQueue     RetryQueueConfig     `mapstructure:"retry_queue"`
	Listener       ListenerConfig       `mapstructure:"listener"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Shutdown       ShutdownConfig       `mapstructure:"shutdown"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// ChainConfig contains blockchain client settings
type ChainConfig struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	ChainID         int64         `mapstructure:"chain_id"`
	ContractAddress string        `mapstructure:"contract_address"`
	AdminPrivateKey string        `mapstructure:"admin_private_key"`
	GasLimit        uint64        `mapstructure:"gas_limit"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
	PollingInterval time.Duration `mapstructure:"polling_interval"`
}

// WalletConfig contains custodial wallet settings
type WalletConfig struct {
	// EncryptionKeyEnv names the environment variable holding the key
	// material for custodial private key encryption.
	EncryptionKeyEnv string `mapstructure:"encryption_key_env"`
	DefaultCurrency  string `mapstructure:"default_currency"`
}

// RetryQueueConfig contains retry queue settings
type RetryQueueConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// ListenerConfig contains event listener settings
type ListenerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ReconciliationConfig contains settings for balance reconciliation
type ReconciliationConfig struct {
	InitialTimeout time.Duration `mapstructure:"initial_timeout"`
	Interval       time.Duration `mapstructure:"interval"`
}

// ShutdownConfig contains graceful shutdown settings
type ShutdownConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "nepalipay")

	// Chain defaults
	viper.SetDefault("chain.chain_id", 56)
	viper.SetDefault("chain.gas_limit", 300000)
	viper.SetDefault("chain.call_timeout", "30s")
	viper.SetDefault("chain.polling_interval", "5s")

	// Wallet defaults
	viper.SetDefault("wallet.encryption_key_env", "WALLET_ENCRYPTION_KEY")
	viper.SetDefault("wallet.default_currency", "NPT")

	// Retry queue defaults
	viper.SetDefault("retry_queue.interval", "5s")
	viper.SetDefault("retry_queue.max_attempts", 3)

	// Listener defaults
	viper.SetDefault("listener.enabled", true)

	// Reconciliation defaults
	viper.SetDefault("reconciliation.initial_timeout", "2m")
	viper.SetDefault("reconciliation.interval", "5m")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")

	// Shutdown defaults
	viper.SetDefault("shutdown.timeout", "30s")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.RetryQueue.Interval <= 0 {
		return fmt.Errorf("retry_queue.interval must be positive")
	}
	if config.RetryQueue.MaxAttempts < 1 {
		return fmt.Errorf("retry_queue.max_attempts must be at least 1")
	}
	// Chain settings are optional: without them the daemon runs in degraded
	// mode (reads report zero, writes are skipped).
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
