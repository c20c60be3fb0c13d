// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CatalogPostgres = "postgres"
	CatalogMongo    = "mongo"
)

type Config struct {
	HTTPPort        string
	GRPCPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string

	DB DBConfig

	CatalogBackend string
	MongoURI       string
	MongoDBName    string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	KafkaBrokers       []string
	KafkaTopic         string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	AdminAPIKey string

	SessionCookieName   string
	SessionCookieMaxAge time.Duration
	SessionCookieSecure bool

	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

type DBConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	// Path is only used by the sqlite driver.
	Path string
}

// Load reads a local .env file when one exists, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		GRPCPort: getEnv("GRPC_PORT", "50051"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DB: DBConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "storefront"),
			Path:     getEnv("DB_PATH", "storefront.db"),
		},
		CatalogBackend:    strings.ToLower(getEnv("CATALOG_BACKEND", CatalogPostgres)),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:       getEnv("MONGO_DB_NAME", "catalog"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:      splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "order-events"),
		AdminAPIKey:       getEnv("ADMIN_API_KEY", ""),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "sessionid"),
	}

	var err error
	if cfg.DB.Port, err = getInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.OutboxBatchSize, err = getInt("OUTBOX_BATCH_SIZE", 100); err != nil {
		return nil, err
	}
	failures, err := getInt("BREAKER_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	cfg.BreakerFailures = uint32(failures)

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"REQUEST_TIMEOUT", 30 * time.Second, &cfg.RequestTimeout},
		{"SHUTDOWN_TIMEOUT", 10 * time.Second, &cfg.ShutdownTimeout},
		{"CACHE_TTL", 5 * time.Minute, &cfg.CacheTTL},
		{"OUTBOX_POLL_INTERVAL", 2 * time.Second, &cfg.OutboxPollInterval},
		{"SESSION_COOKIE_MAX_AGE", 14 * 24 * time.Hour, &cfg.SessionCookieMaxAge},
		{"BREAKER_TIMEOUT", 30 * time.Second, &cfg.BreakerTimeout},
	}
	for _, d := range durations {
		if *d.dest, err = getDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.SessionCookieSecure, err = getBool("SESSION_COOKIE_SECURE", false); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
	}
	switch c.CatalogBackend {
	case CatalogPostgres, CatalogMongo:
	default:
		return fmt.Errorf("CATALOG_BACKEND must be %s or %s, got %q", CatalogPostgres, CatalogMongo, c.CatalogBackend)
	}
	if c.BreakerFailures == 0 {
		return fmt.Errorf("BREAKER_FAILURES must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, raw)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, raw)
	}
	return d, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
