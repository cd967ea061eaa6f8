package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost         string
	HTTPPort         string
	MySQLDSN         string
	JWTSecret        string
	SessionTokenTTL  time.Duration
	ResetTokenTTL    time.Duration
	ResetLinkBaseURL string
	SMTP             SMTPConfig
	LogLevel         string
	LogFormat        string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Email    string
	Password string
	From     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		HTTPHost:         getEnv("HTTP_HOST", ""),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		MySQLDSN:         mysqlDSN,
		JWTSecret:        jwtSecret,
		SessionTokenTTL:  getDurationEnv("SESSION_TOKEN_TTL", 1*time.Hour),
		ResetTokenTTL:    getDurationEnv("RESET_TOKEN_TTL", 10*time.Minute),
		ResetLinkBaseURL: getEnv("RESET_LINK_BASE_URL", "http://localhost:8080"),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getIntEnv("SMTP_PORT", 587),
			Email:    os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
			From:     getEnv("EMAIL_FROM", "RoadHelper200@gmail.com"),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}, nil
}

func (c *Config) DSN() string {
	return c.MySQLDSN
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
