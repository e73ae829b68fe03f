package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "CONOS"

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auction AuctionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("%s_DB_DSN is required", EnvPrefix)
	}
	if c.Auction.LockTTL <= 0 {
		return fmt.Errorf("%s_AUCTION_LOCK_TTL must be positive", EnvPrefix)
	}
	return nil
}

type AppConfig struct {
	Env       string `envconfig:"CONOS_APP_ENV" default:"dev"`
	Address   string `envconfig:"CONOS_SERVER_ADDRESS" default:"0.0.0.0:8080"`
	LogLevel  string `envconfig:"CONOS_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"CONOS_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "dev")
}

type DBConfig struct {
	DSN             string        `envconfig:"CONOS_DB_DSN"`
	AutoMigrate     bool          `envconfig:"CONOS_DB_AUTO_MIGRATE" default:"true"`
	MaxOpenConns    int           `envconfig:"CONOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CONOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CONOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CONOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig: пустой URL означает блокировку аукционов внутри процесса.
type RedisConfig struct {
	URL         string        `envconfig:"CONOS_REDIS_URL"`
	DialTimeout time.Duration `envconfig:"CONOS_REDIS_DIAL_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type AuctionConfig struct {
	LockTTL      time.Duration `envconfig:"CONOS_AUCTION_LOCK_TTL" default:"30s"`
	LockWait     time.Duration `envconfig:"CONOS_AUCTION_LOCK_WAIT" default:"5s"`
	LockInterval time.Duration `envconfig:"CONOS_AUCTION_LOCK_RETRY_INTERVAL" default:"50ms"`
}
