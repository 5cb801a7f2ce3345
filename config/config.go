package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config collects every setting the service reads, resolved once at process
// start. Components receive the sections they need instead of reading the
// environment ad hoc.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`

	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// BaseURL is used to build absolute short-link URLs in previews and
	// social metadata, e.g. "https://tiny.example.com".
	BaseURL string `mapstructure:"base_url"`
	// TimeZone is the optional display timezone for rendered timestamps.
	TimeZone string `mapstructure:"time_zone"`
}

type DatabaseConfig struct {
	// Driver selects the GORM dialect: "postgres" or "sqlite". Empty means
	// no database; the service falls back to the in-memory store.
	Driver string `mapstructure:"driver"`
	// URL is the connection string (postgres DSN or sqlite file path).
	URL string `mapstructure:"url"`
	// DisableCodeFilter turns off the process-local code bloom filter.
	// Required when more than one writer shares the store.
	DisableCodeFilter bool `mapstructure:"disable_code_filter"`
}

type FetchConfig struct {
	// TimeoutMS bounds the target metadata GET, in milliseconds.
	TimeoutMS int `mapstructure:"timeout_ms"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PrometheusConfig struct {
	Port int `mapstructure:"port"`
}

// Timeout returns the metadata fetch timeout as a duration, zero when
// unset.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Configured reports whether a persistent store is configured.
func (c DatabaseConfig) Configured() bool {
	return c.URL != ""
}

// Load resolves configuration from config.yaml (working dir or ./config)
// and the environment, with .env honoured for development.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("fetch.timeout_ms", 2000)
	v.SetDefault("prometheus.port", 9090)
}

// bindEnvVars keeps the flat env variable names working.
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.base_url", "BASE_URL")
	v.BindEnv("server.time_zone", "TIME_ZONE")

	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.url", "DATABASE_URL")

	v.BindEnv("fetch.timeout_ms", "FETCH_TIMEOUT_MS")
	v.BindEnv("database.disable_code_filter", "DISABLE_CODE_FILTER")

	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	v.BindEnv("prometheus.port", "PROM_PORT")
}
