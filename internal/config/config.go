package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds every setting of the API process.
type Config struct {
	Port     string `envconfig:"PORT" default:"3300"`
	AppEnv   string `envconfig:"APP_ENV" default:"production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Database    DatabaseConfig
	AutoMigrate bool `envconfig:"AUTO_MIGRATE" default:"false"`

	JWTSecret string        `envconfig:"JWT_SECRET_KEY"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"168h"`

	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`

	// trust X-Forwarded-For from loopback/private proxies
	TrustProxy bool `envconfig:"TRUST_PROXY" default:"false"`

	PayPack PayPackConfig `envconfig:"PAYPACK"`
	Kafka   KafkaConfig   `envconfig:"KAFKA"`
	Storage StorageConfig `envconfig:"S3"`

	WebhookRate RateConfig `envconfig:"WEBHOOK_RATE"`
	AuthRate    RateConfig `envconfig:"AUTH_RATE"`
}

type DatabaseConfig struct {
	URL          string `envconfig:"DATABASE_URL"`
	Host         string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port         int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User         string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password     string `envconfig:"POSTGRES_PASSWORD"`
	Name         string `envconfig:"POSTGRES_DB" default:"agritech"`
	SSLMode      string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxOpenConns int    `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"20"`
}

type PayPackConfig struct {
	BaseURL       string        `envconfig:"BASE_URL" default:"https://paypack.rw/api"`
	ClientID      string        `envconfig:"CLIENT_ID"`
	ClientSecret  string        `envconfig:"CLIENT_SECRET"`
	CallbackURL   string        `envconfig:"CALLBACK_URL"`
	WebhookSecret string        `envconfig:"WEBHOOK_SECRET"`
	CashInTimeout time.Duration `envconfig:"CASHIN_TIMEOUT" default:"15s"`
	QueryTimeout  time.Duration `envconfig:"QUERY_TIMEOUT" default:"10s"`
	AuthTimeout   time.Duration `envconfig:"AUTH_TIMEOUT" default:"10s"`

	// a pending request younger than this blocks a new one for the same order
	PendingWindow time.Duration `envconfig:"PENDING_WINDOW" default:"5m"`
}

// empty Brokers disables publishing
type KafkaConfig struct {
	Brokers      []string `envconfig:"BROKERS"`
	PaymentTopic string   `envconfig:"PAYMENT_TOPIC" default:"payment_status_updates"`
	OrderTopic   string   `envconfig:"ORDER_TOPIC" default:"order_events"`
}

// empty Bucket disables image upload
type StorageConfig struct {
	Bucket        string `envconfig:"BUCKET"`
	Region        string `envconfig:"REGION" default:"us-east-1"`
	Endpoint      string `envconfig:"ENDPOINT"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL"`
	Folder        string `envconfig:"FOLDER" default:"agrli-app"`

	// static keys; the default AWS chain is used when empty
	AccessKeyID     string `envconfig:"ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
}

type RateConfig struct {
	PerSecond float64 `envconfig:"PER_SEC" default:"5"`
	Burst     int     `envconfig:"BURST" default:"10"`
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(strings.TrimPrefix(c.Port, ":")); err != nil {
		return fmt.Errorf("PORT must be number: %w", err)
	}
	switch c.AppEnv {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("APP_ENV must be one of development, production, test")
	}
	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("DATABASE_URL or POSTGRES_HOST is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS is required")
	}
	if c.PayPack.BaseURL == "" {
		return fmt.Errorf("PAYPACK_BASE_URL is required")
	}

	// production never runs without provider credentials
	if c.AppEnv == EnvProduction {
		if c.PayPack.ClientID == "" || c.PayPack.ClientSecret == "" {
			return fmt.Errorf("PAYPACK_CLIENT_ID and PAYPACK_CLIENT_SECRET are required")
		}
		if c.PayPack.CallbackURL == "" {
			return fmt.Errorf("PAYPACK_CALLBACK_URL is required")
		}
		if c.PayPack.WebhookSecret == "" {
			return fmt.Errorf("PAYPACK_WEBHOOK_SECRET is required")
		}
	}
	if c.Storage.Bucket != "" && c.Storage.PublicBaseURL == "" {
		return fmt.Errorf("S3_PUBLIC_BASE_URL is required when S3_BUCKET is set")
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// ":3300" form for echo.Start
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
