package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr     string
	AllowedOrigins []string
	GinMode        string
	LogLevel       string
	LogPretty      bool
	SessionTTL     time.Duration
	GameEndedTTL   time.Duration
	ReconnectGrace time.Duration
}

// Load reads configuration from the environment. A .env file is honored in
// development; missing values fall back to defaults that work locally.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":4000"),
		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnv("LOG_PRETTY", "true") == "true",
		SessionTTL:     getDuration("SESSION_TTL_SECONDS", 15*time.Minute),
		GameEndedTTL:   getDuration("GAME_ENDED_TTL_SECONDS", 30*time.Second),
		ReconnectGrace: getDuration("RECONNECT_GRACE_SECONDS", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
