// Package config loads service configuration from environment variables so
// main stays lean. Every knob has a development default; production
// deployments override them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "foundry/pkg/platform/strings"
)

// Config is the root configuration for the service.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Registry RegistryConfig
	Factory  FactoryConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// PostgresConfig configures the Postgres connection pool. An empty URL means
// Postgres is not configured and stores fall back to in-memory backends.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether a Postgres backend is configured.
func (c PostgresConfig) Enabled() bool { return c.URL != "" }

// RedisConfig configures the Redis client. An empty URL means Redis is not
// configured and the registry cache layer is skipped.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Enabled reports whether a Redis backend is configured.
func (c RedisConfig) Enabled() bool { return c.URL != "" }

// KafkaConfig configures the audit event stream. No brokers means Kafka is
// not configured and audit events stop at the store.
type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	ConsumerGroup string
}

// Enabled reports whether Kafka publishing is configured.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// AuthConfig holds token signing and admin gate settings. AdminAccount is
// the ledger account that receives deployment fees.
type AuthConfig struct {
	JWTSigningKey  string
	JWTIssuer      string
	JWTAudience    string
	TokenTTL       time.Duration
	AdminToken     string
	AdminTokenHash string
	AdminAccount   string
}

// RegistryConfig tunes the blueprint catalog cache.
type RegistryConfig struct {
	CacheTTL time.Duration
}

// FactoryConfig names the deploy engine's ledger parties: the platform
// currency deployments pay fees in and the escrow account payments park in
// during initialize. Empty values are generated fresh at startup, which is
// fine for development but loses the accounts on restart.
type FactoryConfig struct {
	FeeToken      string
	EscrowAccount string
}

// Load builds the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            envString("FOUNDRY_ADDR", ":8080"),
			LogLevel:        envString("FOUNDRY_LOG_LEVEL", "info"),
			ShutdownTimeout: envDuration("FOUNDRY_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			URL:             envString("FOUNDRY_POSTGRES_URL", ""),
			MaxOpenConns:    envInt("FOUNDRY_POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("FOUNDRY_POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("FOUNDRY_POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          envString("FOUNDRY_REDIS_URL", ""),
			PoolSize:     envInt("FOUNDRY_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("FOUNDRY_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("FOUNDRY_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("FOUNDRY_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("FOUNDRY_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       platformstrings.DedupeAndTrim(strings.Split(envString("FOUNDRY_KAFKA_BROKERS", ""), ",")),
			AuditTopic:    envString("FOUNDRY_KAFKA_AUDIT_TOPIC", "foundry.audit.events"),
			ConsumerGroup: envString("FOUNDRY_KAFKA_CONSUMER_GROUP", "foundry-audit"),
		},
		Auth: AuthConfig{
			// Defaults are for development only and must be overridden in production.
			JWTSigningKey:  envString("FOUNDRY_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:      envString("FOUNDRY_JWT_ISSUER", "foundry"),
			JWTAudience:    envString("FOUNDRY_JWT_AUDIENCE", "foundry-api"),
			TokenTTL:       envDuration("FOUNDRY_TOKEN_TTL", time.Hour),
			AdminToken:     envString("FOUNDRY_ADMIN_TOKEN", "dev-admin-token"),
			AdminTokenHash: envString("FOUNDRY_ADMIN_TOKEN_HASH", ""),
			AdminAccount:   envString("FOUNDRY_ADMIN_ACCOUNT", ""),
		},
		Registry: RegistryConfig{
			CacheTTL: envDuration("FOUNDRY_REGISTRY_CACHE_TTL", 5*time.Minute),
		},
		Factory: FactoryConfig{
			FeeToken:      envString("FOUNDRY_FEE_TOKEN", ""),
			EscrowAccount: envString("FOUNDRY_ESCROW_ACCOUNT", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: FOUNDRY_ADDR must not be empty")
	}
	if c.Auth.JWTSigningKey == "" {
		return fmt.Errorf("config: FOUNDRY_JWT_SIGNING_KEY must not be empty")
	}
	if c.Auth.AdminToken == "" && c.Auth.AdminTokenHash == "" {
		return fmt.Errorf("config: one of FOUNDRY_ADMIN_TOKEN or FOUNDRY_ADMIN_TOKEN_HASH must be set")
	}
	if c.Kafka.Enabled() && c.Kafka.AuditTopic == "" {
		return fmt.Errorf("config: FOUNDRY_KAFKA_AUDIT_TOPIC must not be empty when brokers are set")
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown FOUNDRY_LOG_LEVEL %q", c.Server.LogLevel)
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
