// Package config loads the smsrelay process configuration.
//
// Values are resolved in this order: environment variables prefixed with
// SMSRELAY_, a .env file in the working directory, an optional config.yaml,
// then built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SMSRELAY"

// Store drivers.
const (
	DriverMongo    = "mongo"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the process configuration.
type Config struct {
	HTTPAddr  string `mapstructure:"HTTP_ADDR"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	MongoURL      string `mapstructure:"MONGO_URL"`
	DBName        string `mapstructure:"DB_NAME"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	PostgresDSN   string `mapstructure:"POSTGRES_DSN"`

	DeliveryTimeout   time.Duration `mapstructure:"DELIVERY_TIMEOUT"`
	DeliveryRateLimit int           `mapstructure:"DELIVERY_RATE_LIMIT"`
	ShutdownTimeout   time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
}

var defaults = map[string]any{
	"HTTP_ADDR":           ":8001",
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "json",
	"STORE_DRIVER":        DriverMongo,
	"MONGO_URL":           "",
	"DB_NAME":             "sms_forwarder",
	"REDIS_ADDR":          "",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"POSTGRES_DSN":        "",
	"DELIVERY_TIMEOUT":    "30s",
	"DELIVERY_RATE_LIMIT": 0,
	"SHUTDOWN_TIMEOUT":    "10s",
	"CORS_ORIGINS":        "*",
}

// Load reads the configuration from dir. An empty dir means the working
// directory. Missing .env and config.yaml files are not an error.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURL == "" {
			return errors.New("config: MONGO_URL is required for the mongo store")
		}
		if c.DBName == "" {
			return errors.New("config: DB_NAME is required for the mongo store")
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR is required for the redis store")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("config: POSTGRES_DSN is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must not be empty")
	}
	if c.DeliveryTimeout <= 0 {
		return fmt.Errorf("config: DELIVERY_TIMEOUT must be positive, got %s", c.DeliveryTimeout)
	}
	if c.DeliveryRateLimit < 0 {
		return fmt.Errorf("config: DELIVERY_RATE_LIMIT must not be negative, got %d", c.DeliveryRateLimit)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// RedisURL renders the Redis settings as the redis:// DSN the KV driver
// dials.
func (c *Config) RedisURL() string {
	u := url.URL{
		Scheme: "redis",
		Host:   c.RedisAddr,
		Path:   "/" + strconv.Itoa(c.RedisDB),
	}
	if c.RedisPassword != "" {
		u.User = url.UserPassword("", c.RedisPassword)
	}
	return u.String()
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
