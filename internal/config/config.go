package config

import (
	"os"
	"strconv"
	"strings"
)

// Config collects the environment-driven settings read at boot. Components
// that predate it (database, auth middleware) still read their own variables.
type Config struct {
	Port           string
	AppEnv         string
	AllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func Load() *Config {
	cfg := &Config{
		Port:          valueOrDefault("PORT", "8080"),
		AppEnv:        valueOrDefault("APP_ENV", "development"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       intOrDefault("REDIS_DB", 0),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      intOrDefault("SMTP_PORT", 587),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:      valueOrDefault("SMTP_FROM", "no-reply@habitlink.app"),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	} else {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}

	return cfg
}

func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func valueOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func intOrDefault(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
