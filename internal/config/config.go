package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration, read once at startup.
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogJSON   bool
	JWTSecret string
	TokenTTL  time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:      getenv("FAMLEDGER_PORT", "8080"),
		DBPath:    getenv("FAMLEDGER_DB_PATH", "famledger.db"),
		LogLevel:  getenv("FAMLEDGER_LOG_LEVEL", "info"),
		LogJSON:   getbool("FAMLEDGER_LOG_JSON", false),
		JWTSecret: os.Getenv("FAMLEDGER_JWT_SECRET"),
		TokenTTL:  24 * time.Hour,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("FAMLEDGER_JWT_SECRET is required")
	}

	if ttl := os.Getenv("FAMLEDGER_TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return Config{}, fmt.Errorf("parse FAMLEDGER_TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
