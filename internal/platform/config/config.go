package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "studioreg/pkg/platform/strings"
)

// DevInitialAdmin is used when STUDIOREG_INITIAL_ADMIN is unset. Production
// deployments must override it.
const DevInitialAdmin = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"

// Config is the full service configuration.
type Config struct {
	Server   Server
	Registry RegistryConfig
	Log      LogConfig
	Audit    AuditConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// RegistryConfig configures the verification registry.
type RegistryConfig struct {
	InitialAdmin string
	// UsingDevAdmin is set when the initial admin fell back to DevInitialAdmin.
	UsingDevAdmin bool
	LockTimeout   time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// AuditConfig controls audit delivery. BufferSize 0 means synchronous writes.
type AuditConfig struct {
	BufferSize int
	// OpsSampleRate is the fraction of operations-category events kept (0..1).
	OpsSampleRate float64
	// SinkFailureThreshold consecutive external sink failures open the breaker
	// for SinkCooldown.
	SinkFailureThreshold int
	SinkCooldown         time.Duration
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AuditStream  string
}

type KafkaConfig struct {
	Brokers           []string
	AuditTopic        string
	ClientID          string
	Partitions        int32
	ReplicationFactor int16
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	p := parser{lookup: lookup}

	cfg := Config{
		Server: Server{
			Addr:            p.str("STUDIOREG_ADDR", ":8080"),
			RequestTimeout:  p.duration("STUDIOREG_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: p.duration("STUDIOREG_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Registry: RegistryConfig{
			InitialAdmin: p.str("STUDIOREG_INITIAL_ADMIN", ""),
			LockTimeout:  p.duration("STUDIOREG_LOCK_TIMEOUT", 5*time.Second),
		},
		Log: LogConfig{
			Level:  strings.ToLower(p.str("LOG_LEVEL", "info")),
			Format: strings.ToLower(p.str("LOG_FORMAT", "json")),
		},
		Audit: AuditConfig{
			BufferSize:           p.integer("AUDIT_BUFFER_SIZE", 0),
			OpsSampleRate:        p.float("AUDIT_OPS_SAMPLE_RATE", 1),
			SinkFailureThreshold: p.integer("AUDIT_SINK_FAILURE_THRESHOLD", 5),
			SinkCooldown:         p.duration("AUDIT_SINK_COOLDOWN", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:          p.str("DATABASE_URL", ""),
			MaxOpenConns: p.integer("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: p.integer("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			AuditStream:  p.str("REDIS_AUDIT_STREAM", "studioreg:audit"),
		},
		Kafka: KafkaConfig{
			Brokers:           p.list("KAFKA_BROKERS"),
			AuditTopic:        p.str("KAFKA_AUDIT_TOPIC", "studioreg.audit"),
			ClientID:          p.str("KAFKA_CLIENT_ID", "studioreg"),
			Partitions:        int32(p.integer("KAFKA_AUDIT_PARTITIONS", 1)),
			ReplicationFactor: int16(p.integer("KAFKA_AUDIT_REPLICATION_FACTOR", 1)),
		},
	}

	if cfg.Registry.InitialAdmin == "" {
		// Use a default for development - should be overridden in production
		cfg.Registry.InitialAdmin = DevInitialAdmin
		cfg.Registry.UsingDevAdmin = true
	}

	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}
	if c.Audit.BufferSize < 0 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must not be negative")
	}
	if c.Audit.OpsSampleRate < 0 || c.Audit.OpsSampleRate > 1 {
		return fmt.Errorf("AUDIT_OPS_SAMPLE_RATE must be between 0 and 1, got %v", c.Audit.OpsSampleRate)
	}
	if c.Server.RequestTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.AuditTopic == "" {
		return fmt.Errorf("KAFKA_AUDIT_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// parser records the first malformed value and keeps defaults for the rest.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) str(key, def string) string {
	if v, ok := p.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(fmt.Errorf("%s: invalid duration %q: %w", key, raw, err))
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(fmt.Errorf("%s: invalid integer %q: %w", key, raw, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(fmt.Errorf("%s: invalid number %q: %w", key, raw, err))
		return def
	}
	return f
}

func (p *parser) list(key string) []string {
	return pkgstrings.SplitList(p.str(key, ""), ",")
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
