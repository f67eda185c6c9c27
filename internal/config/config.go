// Package config loads server settings from the environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the HTTP server and auth settings.
type Config struct {
	Port      string
	JWTSecret string
}

// Load reads configuration from a .env file (when present) and the process
// environment, falling back to local-development defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
