package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean; defaults favor local development.
type Config struct {
	Addr          string
	PostgresDSN   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string

	// StrictCapacity turns on bus-capacity checks at assignment and transfer
	// time. Off by default: the legacy system only checked capacity when it
	// was reduced, and enabling the check changes the observable conflict
	// surface for callers.
	StrictCapacity bool

	// DirectoryBaseURL points at the external read-only reference directory
	// (periods, districts, locations).
	DirectoryBaseURL string
	// DirectoryCacheTTL bounds staleness of cached directory lookups.
	DirectoryCacheTTL time.Duration
}

// RedisConfig holds connection settings for the directory cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the audit outbox relay.
type KafkaConfig struct {
	Brokers      []string
	AuditTopic   string
	PollInterval time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:          getenv("SCHOOLBUS_ADDR", ":8080"),
		PostgresDSN:   os.Getenv("SCHOOLBUS_POSTGRES_DSN"),
		JWTSigningKey: getenv("SCHOOLBUS_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("SCHOOLBUS_REDIS_URL"),
			PoolSize:     getenvInt("SCHOOLBUS_REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("SCHOOLBUS_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getenvDuration("SCHOOLBUS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("SCHOOLBUS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("SCHOOLBUS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(os.Getenv("SCHOOLBUS_KAFKA_BROKERS")),
			AuditTopic:   getenv("SCHOOLBUS_AUDIT_TOPIC", "schoolbus.audit"),
			PollInterval: getenvDuration("SCHOOLBUS_OUTBOX_POLL_INTERVAL", 2*time.Second),
		},
		StrictCapacity:    os.Getenv("SCHOOLBUS_STRICT_CAPACITY") == "true",
		DirectoryBaseURL:  os.Getenv("SCHOOLBUS_DIRECTORY_URL"),
		DirectoryCacheTTL: getenvDuration("SCHOOLBUS_DIRECTORY_CACHE_TTL", 5*time.Minute),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
