package config

import (
	"errors"
	"fmt"
	"time"
)

// Store drivers.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	// Rooms and clocks.
	Rooms        int           `mapstructure:"rooms" yaml:"rooms"`
	GracePeriod  time.Duration `mapstructure:"grace_period" yaml:"grace_period"`
	TickInterval time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	MaxTimeLimit int           `mapstructure:"max_time_limit" yaml:"max_time_limit"`
	GuestName    string        `mapstructure:"guest_name" yaml:"guest_name"`

	// Meister analysis.
	MeisterDepth   int           `mapstructure:"meister_depth" yaml:"meister_depth"`
	MeisterWorkers int           `mapstructure:"meister_workers" yaml:"meister_workers"`
	MeisterTimeout time.Duration `mapstructure:"meister_timeout" yaml:"meister_timeout"`

	// WebSocket limits. RateLimit is inbound frames per minute, 0 disables it.
	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimit       int   `mapstructure:"rate_limit" yaml:"rate_limit"`

	// Admin API.
	AdminPassword string        `mapstructure:"admin_password" yaml:"admin_password"`
	JWTSecret     string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer     string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience   string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL        time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	// Persistence.
	StoreDriver string `mapstructure:"store_driver" yaml:"store_driver"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	RedisURL    string `mapstructure:"redis_url" yaml:"redis_url"`
	RedisPrefix string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3001",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",

		Rooms:        4,
		GracePeriod:  30 * time.Second,
		TickInterval: time.Second,
		MaxTimeLimit: 3600,
		GuestName:    "Guest",

		MeisterDepth:   4,
		MeisterWorkers: 2,
		MeisterTimeout: 10 * time.Second,

		MaxMessageBytes: 1 << 16,
		RateLimit:       600,

		AdminPassword: "administrator",
		JWTSecret:     "change-me",
		JWTIssuer:     "meister",
		JWTAudience:   "meister-admin",
		JWTTTL:        12 * time.Hour,

		StoreDriver: StoreSQLite,
		SQLitePath:  "meister.db",
		RedisURL:    "redis://localhost:6379/0",
		RedisPrefix: "meister:",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Only the fields exposed as command-line flags are considered.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.StoreDriver != "" {
		c.StoreDriver = other.StoreDriver
	}
	if other.SQLitePath != "" {
		c.SQLitePath = other.SQLitePath
	}
	if other.RedisURL != "" {
		c.RedisURL = other.RedisURL
	}
	if other.Rooms != 0 {
		c.Rooms = other.Rooms
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.Rooms <= 0 {
		errs = append(errs, fmt.Errorf("rooms must be positive, got %d", c.Rooms))
	}
	if c.GracePeriod <= 0 || c.TickInterval <= 0 {
		errs = append(errs, errors.New("grace_period and tick_interval must be positive"))
	}
	if c.MeisterDepth <= 0 {
		errs = append(errs, fmt.Errorf("meister_depth must be positive, got %d", c.MeisterDepth))
	}
	if c.AdminPassword == "" || c.JWTSecret == "" {
		errs = append(errs, errors.New("admin_password and jwt_secret are required"))
	}
	switch c.StoreDriver {
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite_path is required for the sqlite store"))
		}
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis_url is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store_driver %q", c.StoreDriver))
	}
	return errors.Join(errs...)
}
