package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Chart identity
	Symbol string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	RedisStream   string
	SQLitePath    string
	ListenAddr    string
	MetricsAddr   string
	LogLevel      string

	// Chart defaults handed to new clients
	DefaultResolution string
	DefaultHorizon    string
	ViewportWidth     float64
	ViewportHeight    float64
	PastFraction      float64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Symbol: getEnv("CHART_SYMBOL", "AAPL"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisStream:   getEnv("REDIS_STREAM", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/chart.db"),
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DefaultResolution: getEnv("DEFAULT_RESOLUTION", "1d"),
		DefaultHorizon:    getEnv("DEFAULT_HORIZON", "3m"),
		ViewportWidth:     getEnvFloat("VIEWPORT_WIDTH", 390),
		ViewportHeight:    getEnvFloat("VIEWPORT_HEIGHT", 260),
		PastFraction:      getEnvFloat("PAST_FRACTION", 0.6),
	}
}

// FeedStream returns the Redis stream key for the configured symbol,
// honoring an explicit REDIS_STREAM override.
func (c *Config) FeedStream() string {
	if c.RedisStream != "" {
		return c.RedisStream
	}
	return "chart:samples:" + c.Symbol
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return f
}
