package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

var devOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

type Config struct {
	// Server
	Port            string
	Environment     string
	FrontendOrigins []string
	MaxBodyBytes    int64

	// Database
	DatabaseURL string

	// JWT
	JWTSecret string
	// Zero disables the exp claim entirely.
	JWTExpirationHours int

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	// A missing .env is fine; variables already set in the environment win.
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "5000"),
		Environment:        getEnv("ENVIRONMENT", EnvDevelopment),
		FrontendOrigins:    getEnvList("FRONTEND_ORIGINS", devOrigins),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 50<<20)),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpirationHours: getEnvInt("JWT_EXPIRATION_HOURS", 0),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.JWTExpirationHours < 0 {
		return nil, fmt.Errorf("JWT_EXPIRATION_HOURS must not be negative")
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// AllowedOrigins returns the CORS origins for the current environment.
func (c *Config) AllowedOrigins() []string {
	if c.IsDevelopment() {
		return devOrigins
	}
	return c.FrontendOrigins
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
