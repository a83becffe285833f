package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	strs "github.com/GuyfromMontana/MFC-single-agent/pkg/platform/strings"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Server   Server         `envconfig:"SERVER"`
	Database DatabaseConfig `envconfig:"DATABASE"`
	Memory   MemoryConfig   `envconfig:"MEMORY"`
	Redis    RedisConfig    `envconfig:"REDIS"`
	Kafka    KafkaConfig    `envconfig:"KAFKA"`
	Lookup   LookupConfig   `envconfig:"LOOKUP"`
	Agent    AgentConfig    `envconfig:"AGENT"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	WebhookSecret   string        `envconfig:"WEBHOOK_SECRET"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds the relational store connection settings.
type DatabaseConfig struct {
	URL             string        `envconfig:"URL" required:"true"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"30m"`
}

// MemoryConfig configures the conversation-memory service client.
type MemoryConfig struct {
	BaseURL        string        `envconfig:"BASE_URL" default:"https://api.getzep.com/api/v2"`
	APIKey         string        `envconfig:"API_KEY" required:"true"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"5s"`
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"2s"`
	MaxIdleConns   int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	MaxConns       int           `envconfig:"MAX_CONNS" default:"10"`

	BreakerFailures  int           `envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerSuccesses int           `envconfig:"BREAKER_SUCCESSES" default:"3"`
	BreakerCooldown  time.Duration `envconfig:"BREAKER_COOLDOWN" default:"10s"`
}

// RedisConfig configures the optional Redis connection used for webhook dedupe.
// An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `envconfig:"URL"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"2s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"1s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"1s"`
	DedupeTTL    time.Duration `envconfig:"DEDUPE_TTL" default:"24h"`
}

// KafkaConfig configures call-summary publishing. No brokers disables Kafka.
type KafkaConfig struct {
	Brokers      []string `envconfig:"BROKERS"`
	SummaryTopic string   `envconfig:"SUMMARY_TOPIC" default:"call-summaries"`
	Partitions   int32    `envconfig:"PARTITIONS" default:"1"`
	Replication  int16    `envconfig:"REPLICATION" default:"1"`
}

// LookupConfig bounds the live-call lookups.
type LookupConfig struct {
	ProfileTimeout    time.Duration `envconfig:"PROFILE_TIMEOUT" default:"2s"`
	TerritoryTimeout  time.Duration `envconfig:"TERRITORY_TIMEOUT" default:"3s"`
	LeadTimeout       time.Duration `envconfig:"LEAD_TIMEOUT" default:"3s"`
	PublishTimeout    time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"5s"`
	DirectorySchedule string        `envconfig:"DIRECTORY_SCHEDULE" default:"@every 15m"`
}

// AgentConfig names the voice agent in persisted transcripts.
type AgentConfig struct {
	Name string `envconfig:"NAME" default:"Agent"`
}

// KafkaEnabled reports whether call summaries go to Kafka.
func (c Config) KafkaEnabled() bool { return len(c.Kafka.Brokers) > 0 }

// RedisEnabled reports whether the Redis dedupe store is configured.
func (c Config) RedisEnabled() bool { return c.Redis.URL != "" }

// FromEnv builds the configuration from environment variables so main stays
// lean. Missing required settings are the only fatal configuration errors.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg.Kafka.Brokers = strs.Unique(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that are present but unusable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.Memory.APIKey) == "" {
		return errors.New("MEMORY_API_KEY is required")
	}
	if c.Memory.MaxConns < c.Memory.MaxIdleConns {
		return fmt.Errorf("MEMORY_MAX_CONNS (%d) must be >= MEMORY_MAX_IDLE_CONNS (%d)", c.Memory.MaxConns, c.Memory.MaxIdleConns)
	}
	return nil
}
