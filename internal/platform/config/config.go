package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	strutil "taskmanager/pkg/platform/strings"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Config is the full process configuration, loaded from the environment so
// main stays lean.
type Config struct {
	Server   Server
	Redis    RedisConfig
	Mail     MailConfig
	Kafka    KafkaConfig
	Lockout  LockoutConfig
	Notify   NotifyConfig
	Database string `env:"DATABASE_URL"`
	OTel     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"TASKMANAGER_ADDR" envDefault:":3000"`
	DevMode         bool          `env:"DEV_MODE" envDefault:"false"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"0s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// RedisConfig configures the lockout store. An empty URL selects memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// MailConfig holds the SendGrid key. It is passed to the sender constructor,
// never read from a package-level variable.
type MailConfig struct {
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	From           string `env:"MAIL_FROM" envDefault:"rachhen.it@gmail.com"`
	FromName       string `env:"MAIL_FROM_NAME" envDefault:"Task Manager"`
}

// KafkaConfig routes notifications through a topic when brokers are set.
type KafkaConfig struct {
	Brokers            []string `env:"KAFKA_BROKERS" envSeparator:","`
	NotificationsTopic string   `env:"KAFKA_NOTIFICATIONS_TOPIC" envDefault:"account-notifications"`
	ConsumerGroup      string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"taskmanager-mailer"`
}

type LockoutConfig struct {
	Attempts int           `env:"LOCKOUT_ATTEMPTS" envDefault:"5"`
	Window   time.Duration `env:"LOCKOUT_WINDOW" envDefault:"15m"`
}

type NotifyConfig struct {
	Workers     int           `env:"NOTIFY_WORKERS" envDefault:"2"`
	Buffer      int           `env:"NOTIFY_BUFFER" envDefault:"64"`
	SendTimeout time.Duration `env:"NOTIFY_SEND_TIMEOUT" envDefault:"10s"`
}

// Normalize trims the broker list and drops empty or repeated entries.
func (k *KafkaConfig) Normalize() {
	k.Brokers = strutil.DedupeAndTrim(k.Brokers)
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// FromEnv parses and validates the process configuration.
func FromEnv() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Kafka.Normalize()
	if cfg.Server.JWTSigningKey == "" && cfg.Server.DevMode {
		cfg.Server.JWTSigningKey = devSigningKey
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Server.JWTSigningKey == "" {
		return errors.New("JWT_SIGNING_KEY is required outside dev mode")
	}
	if c.Server.TokenTTL < 0 {
		return errors.New("TOKEN_TTL must not be negative")
	}
	if c.Lockout.Attempts <= 0 {
		return errors.New("LOCKOUT_ATTEMPTS must be positive")
	}
	if c.Notify.Workers <= 0 {
		return errors.New("NOTIFY_WORKERS must be positive")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
