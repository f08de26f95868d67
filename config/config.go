package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env              string
	Port             string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	PaychanguBaseURL       string
	PaychanguSecretKey     string
	PaychanguWebhookSecret string
	GatewayTimeout         time.Duration

	RedisURL string

	KafkaBrokers        string
	PaymentEventsTopic  string
	NotificationGroupID string

	JWTSecret string

	ReconcileInterval time.Duration
	PendingMaxAge     time.Duration
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8087"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Africa/Blantyre"),

		PaychanguBaseURL:       getEnv("PAYCHANGU_BASE_URL", "https://api.paychangu.com"),
		PaychanguSecretKey:     os.Getenv("PAYCHANGU_SECRET_KEY"),
		PaychanguWebhookSecret: os.Getenv("PAYCHANGU_WEBHOOK_SECRET"),
		GatewayTimeout:         getDuration("GATEWAY_TIMEOUT", 30*time.Second),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		KafkaBrokers:        getEnv("KAFKA_BROKERS", "localhost:9092"),
		PaymentEventsTopic:  getEnv("PAYMENT_EVENTS_TOPIC", "payment-events"),
		NotificationGroupID: getEnv("NOTIFICATION_GROUP_ID", "notification-writer-group"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		ReconcileInterval: getDuration("RECONCILE_INTERVAL", 10*time.Minute),
		PendingMaxAge:     getDuration("PENDING_MAX_AGE", 30*time.Minute),
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("missing required postgres environment variables")
	}
	if cfg.PaychanguSecretKey == "" {
		return nil, fmt.Errorf("PAYCHANGU_SECRET_KEY not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
