package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything read from the environment at startup.
type Config struct {
	Port        string
	RedisAddr   string
	CORSOrigins []string
	BaseURL     string
	RoomTTL     time.Duration
	RoomIDLen   int
}

// Load reads configuration from environment variables, falling back to
// development defaults.
func Load() *Config {
	ttlSeconds := getEnvIntOrDefault("ROOM_TTL_SECONDS", 7200)

	return &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		RedisAddr:   getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		CORSOrigins: splitOrigins(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000")),
		BaseURL:     getEnvOrDefault("BASE_URL", "http://localhost:3000"),
		RoomTTL:     time.Duration(ttlSeconds) * time.Second,
		RoomIDLen:   getEnvIntOrDefault("ROOM_CODE_LENGTH", 6),
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
