// Package config loads service configuration from .env files and the
// environment.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	Port    string
	GinMode string
	DataDir string
	DBPath  string

	ChromePath     string
	BrowserTimeout time.Duration

	PageSpeedAPIKey string

	AIEnabled  bool
	AIAPIKey   string
	AIEndpoint string
	AIModel    string

	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads .env.development first (local development), then .env,
// then the real environment. Missing files are fine.
func Load() *Config {
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}

	return &Config{
		Port:    getEnv("PORT", "8082"),
		GinMode: getEnv("GIN_MODE", "release"),
		DataDir: getEnv("DATA_DIR", "./data"),
		DBPath:  getEnv("DB_PATH", "./data/wpaudit.db"),

		ChromePath:     getEnv("CHROME_PATH", ""),
		BrowserTimeout: getEnvDuration("BROWSER_TIMEOUT", 30*time.Second),

		PageSpeedAPIKey: getEnv("PAGESPEED_API_KEY", ""),

		AIEnabled:  getEnvBool("AI_ENABLED", false),
		AIAPIKey:   getEnv("AI_API_KEY", ""),
		AIEndpoint: getEnv("AI_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		AIModel:    getEnv("AI_MODEL", "gpt-4o-mini"),

		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 2),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 5),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
