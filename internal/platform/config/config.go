package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr           string
	LedgerEndpoint string
	LedgerAPIKey   string
	JWTSigningKey  string
	RedisURL       string
	KafkaBrokers   []string
	AuditTopic     string
	PostgresURL    string
	RateURL        string
	HomeDomains    []string
}

// RedisConfig carries connection tuning for the Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:           getenv("SATPAY_ADDR", ":8080"),
		LedgerEndpoint: os.Getenv("SATPAY_LEDGER_ENDPOINT"),
		LedgerAPIKey:   os.Getenv("SATPAY_LEDGER_API_KEY"),
		JWTSigningKey:  os.Getenv("SATPAY_JWT_SIGNING_KEY"),
		RedisURL:       os.Getenv("SATPAY_REDIS_URL"),
		AuditTopic:     getenv("SATPAY_AUDIT_TOPIC", "satpay.batch.audit"),
		PostgresURL:    os.Getenv("SATPAY_POSTGRES_URL"),
		RateURL:        os.Getenv("SATPAY_RATE_URL"),
	}
	if cfg.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	if brokers := os.Getenv("SATPAY_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	if domains := os.Getenv("SATPAY_HOME_DOMAINS"); domains != "" {
		cfg.HomeDomains = splitAndTrim(domains)
	}
	return cfg
}

// Redis returns the Redis client config with pooling defaults.
func (s Server) Redis() RedisConfig {
	return RedisConfig{
		URL:          s.RedisURL,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
