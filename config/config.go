// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig
	HTTP       HTTPConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Enrollment EnrollmentConfig
	Log        LogConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment string // "development", "staging", "production"
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL settings.
// An empty URL switches the application to the in-memory store.
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis cache settings.
// An empty Addr disables the catalog cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// EnrollmentConfig holds marketplace business settings.
type EnrollmentConfig struct {
	// MaxGroupsPerCourse limits how many groups the allocator may open per course.
	MaxGroupsPerCourse int

	// GroupCapacity is the number of seats in each group.
	GroupCapacity int

	// StartingBonuses is credited to every student at registration.
	StartingBonuses int

	// MaxPurchaseAttempts bounds retries of conflicted purchase transactions.
	MaxPurchaseAttempts int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string // "debug", "info", "warn", "error"
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "course-market-hub"),
			Environment: getEnv("APP_ENV", "development"),
		},
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			CacheTTL: getEnvDuration("REDIS_CACHE_TTL", 5*time.Minute),
		},
		Enrollment: EnrollmentConfig{
			MaxGroupsPerCourse:  getEnvInt("ENROLLMENT_MAX_GROUPS", 10),
			GroupCapacity:       getEnvInt("ENROLLMENT_GROUP_CAPACITY", 30),
			StartingBonuses:     getEnvInt("ENROLLMENT_STARTING_BONUSES", 1000),
			MaxPurchaseAttempts: getEnvInt("ENROLLMENT_MAX_PURCHASE_ATTEMPTS", 3),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("config: HTTP_ADDR cannot be empty")
	}
	if c.Enrollment.MaxGroupsPerCourse <= 0 {
		return fmt.Errorf("config: ENROLLMENT_MAX_GROUPS must be positive")
	}
	if c.Enrollment.GroupCapacity <= 0 {
		return fmt.Errorf("config: ENROLLMENT_GROUP_CAPACITY must be positive")
	}
	if c.Enrollment.StartingBonuses < 0 {
		return fmt.Errorf("config: ENROLLMENT_STARTING_BONUSES cannot be negative")
	}
	if c.Enrollment.MaxPurchaseAttempts <= 0 {
		return fmt.Errorf("config: ENROLLMENT_MAX_PURCHASE_ATTEMPTS must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid LOG_LEVEL %q", c.Log.Level)
	}
	return nil
}

// IsProduction reports whether the application runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
