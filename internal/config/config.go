// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Game         GameConfig         `mapstructure:"game"`
	Housekeeping HousekeepingConfig `mapstructure:"housekeeping"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// AuthConfig holds JWT signing configuration.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// GameConfig holds the game policy knobs. Limits that look like product
// rules (max tickets per player, no self-play) are deliberately
// configuration, not constants.
type GameConfig struct {
	MinPrice          float64 `mapstructure:"min_price"`
	PriceStep         float64 `mapstructure:"price_step"`
	MaxTicketsPerUser int     `mapstructure:"max_tickets_per_user"`
	AllowCreatorPlay  bool    `mapstructure:"allow_creator_play"`
	CommissionPercent float64 `mapstructure:"commission_percent"`
	// Prize scheme in basis points of the net pool; must sum to 10000.
	DiagonalBps int64 `mapstructure:"diagonal_bps"`
	LineBps     int64 `mapstructure:"line_bps"`
	BingoBps    int64 `mapstructure:"bingo_bps"`
}

// MinPriceDecimal returns the minimum ticket price.
func (g *GameConfig) MinPriceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(g.MinPrice)
}

// PriceStepDecimal returns the price quantization step.
func (g *GameConfig) PriceStepDecimal() decimal.Decimal {
	return decimal.NewFromFloat(g.PriceStep)
}

// CommissionDecimal returns the commission percentage.
func (g *GameConfig) CommissionDecimal() decimal.Decimal {
	return decimal.NewFromFloat(g.CommissionPercent)
}

// HousekeepingConfig holds the background sweep configuration. The
// start grace window after a game reaches its minimum varied across
// product revisions (30m vs 2h); it is a knob here, defaulting to 2h.
type HousekeepingConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	OpenTTL    time.Duration `mapstructure:"open_ttl"`
	StartGrace time.Duration `mapstructure:"start_grace"`
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. SERVER_PORT, DATABASE_HOST, AUTH_SECRET.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if sum := cfg.Game.DiagonalBps + cfg.Game.LineBps + cfg.Game.BingoBps; sum != 10000 {
		return nil, fmt.Errorf("prize scheme must sum to 10000 bps, got %d", sum)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "bingo")
	v.SetDefault("database.name", "bingo")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Auth defaults
	v.SetDefault("auth.secret", "dev-secret-change-me")
	v.SetDefault("auth.token_ttl", "1h")

	// Game policy defaults
	v.SetDefault("game.min_price", 0.5)
	v.SetDefault("game.price_step", 0.5)
	v.SetDefault("game.max_tickets_per_user", 2)
	v.SetDefault("game.allow_creator_play", false)
	v.SetDefault("game.commission_percent", 10.0)
	v.SetDefault("game.diagonal_bps", 2222)
	v.SetDefault("game.line_bps", 2222)
	v.SetDefault("game.bingo_bps", 5556)

	// Housekeeping defaults
	v.SetDefault("housekeeping.interval", "60s")
	v.SetDefault("housekeeping.open_ttl", "24h")
	v.SetDefault("housekeeping.start_grace", "2h")
}
