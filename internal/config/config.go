package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv    string
	Port       string
	JWTSecret  string
	AdminEmail string
	InstanceID string
	Database   DatabaseConfig
	Remote     RemoteConfig
}

// DatabaseConfig holds local database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// RemoteConfig holds the remote datastore endpoint configuration
type RemoteConfig struct {
	// BaseURL is the action-dispatch endpoint, e.g. https://shop.example.com/api
	BaseURL        string
	RequestTimeout time.Duration
	HealthInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		NodeEnv:    getEnv("NODE_ENV", "development"),
		Port:       getEnv("PORT", "3001"),
		JWTSecret:  jwtSecret,
		AdminEmail: getEnv("ADMIN_EMAIL", "admin@aquaruse"),
		InstanceID: getEnv("INSTANCE_ID", uuid.NewString()),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "laundry"),
		},
		Remote: RemoteConfig{
			BaseURL:        os.Getenv("REMOTE_API_URL"),
			RequestTimeout: getEnvDuration("REMOTE_TIMEOUT_SECONDS", 10) * time.Second,
			HealthInterval: getEnvDuration("REMOTE_HEALTH_INTERVAL_SECONDS", 30) * time.Second,
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration gets an integer environment variable as a time.Duration unit count
func getEnvDuration(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(defaultValue)
}
