// internal/config/config.go

// Package config loads server configuration from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the full server configuration.
type Config struct {
	Addr          string        // listen address, e.g. ":8080"
	LogLevel      logrus.Level  // parsed LOG_LEVEL
	JWTSecret     string        // HMAC secret for guest tokens
	RedisAddr     string        // optional action stream
	DatabaseURL   string        // optional finished-game archive
	AllowOrigins  []string      // websocket origin patterns
	SweepInterval time.Duration // orphan room sweep cadence
}

// Load reads the environment. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:          getenv("ADDR", ":8080"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SweepInterval: time.Minute,
	}

	level, err := logrus.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("config: bad LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}

	if raw := os.Getenv("ALLOW_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, o)
			}
		}
	}

	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: bad SWEEP_INTERVAL: %w", err)
		}
		if d < time.Second {
			return nil, fmt.Errorf("config: SWEEP_INTERVAL below 1s")
		}
		cfg.SweepInterval = d
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
