package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	CatalogFromFile  = "file"
	CatalogFromMongo = "mongo"

	SinkNone     = "none"
	SinkMongo    = "mongo"
	SinkPostgres = "postgres"
)

// Config holds application configuration loaded from .env and the environment
type Config struct {
	Env              string        `mapstructure:"app_env"`           // local, production
	Port             string        `mapstructure:"port"`              // HTTP listen port
	MongoURI         string        `mapstructure:"mongo_uri"`         // empty disables MongoDB
	MongoDatabase    string        `mapstructure:"mongo_database"`    // database holding tests and results
	RedisURI         string        `mapstructure:"redis_uri"`         // empty disables Redis caches
	PostgresDSN      string        `mapstructure:"postgres_dsn"`      // empty disables the Postgres sink
	CatalogSource    string        `mapstructure:"catalog_source"`    // file or mongo
	CatalogPath      string        `mapstructure:"catalog_path"`      // JSON or YAML catalog
	ResultSink       string        `mapstructure:"result_sink"`       // none, mongo or postgres
	TickInterval     time.Duration `mapstructure:"tick_interval"`     // topic re-accumulation cadence
	SessionRetention time.Duration `mapstructure:"session_retention"` // 0 keeps completed sessions forever
	ResultCacheTTL   time.Duration `mapstructure:"result_cache_ttl"`
	CORSOrigins      string        `mapstructure:"cors_allowed_origins"` // comma separated
}

// Load reads .env (if present) and environment variables on top of defaults
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("app_env", "local")
	v.SetDefault("port", "8080")
	v.SetDefault("mongo_uri", "")
	v.SetDefault("mongo_database", "timedquiz")
	v.SetDefault("redis_uri", "")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("catalog_source", CatalogFromFile)
	v.SetDefault("catalog_path", "data/tests.yaml")
	v.SetDefault("result_sink", SinkNone)
	v.SetDefault("tick_interval", "1s")
	v.SetDefault("session_retention", "0s")
	v.SetDefault("result_cache_ttl", "24h")
	v.SetDefault("cors_allowed_origins", "http://localhost:5173")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected backends have what they need
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive", ErrInvalidConfig)
	}
	switch c.CatalogSource {
	case CatalogFromFile:
		if c.CatalogPath == "" {
			return fmt.Errorf("%w: catalog_path is required", ErrInvalidConfig)
		}
	case CatalogFromMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("%w: catalog_source=mongo needs mongo_uri", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown catalog_source %q", ErrInvalidConfig, c.CatalogSource)
	}
	switch c.ResultSink {
	case SinkNone:
	case SinkMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("%w: result_sink=mongo needs mongo_uri", ErrInvalidConfig)
		}
	case SinkPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: result_sink=postgres needs postgres_dsn", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown result_sink %q", ErrInvalidConfig, c.ResultSink)
	}
	return nil
}

// AllowedOrigins splits CORSOrigins
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsProduction reports whether production logging should be used
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
