package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration, loaded from the environment
// with an optional .env file for local development.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	// SessionTTL bounds how long a login stays valid.
	SessionTTL time.Duration

	// KafkaBrokers empty means events go to the in-process bus.
	KafkaBrokers []string

	Email EmailConfig
}

// EmailConfig configures the transactional email provider.
type EmailConfig struct {
	APIKey   string
	Endpoint string
	From     string
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (*Config, error) {
	// Ignore missing .env; production injects real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		SessionTTL:  parseDuration(getEnv("SESSION_TTL", "168h")),
		Email: EmailConfig{
			APIKey:   os.Getenv("EMAIL_API_KEY"),
			Endpoint: getEnv("EMAIL_API_ENDPOINT", "https://api.resend.com/emails"),
			From:     getEnv("EMAIL_FROM", "Survey BD <noreply@surveybd.app>"),
		},
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 168 * time.Hour
	}
	return d
}
