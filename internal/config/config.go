package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CatchUpPolicy controls how the recurring advancer handles templates that
// missed more than one period.
type CatchUpPolicy string

const (
	// CatchUpBackfill materializes every missed occurrence, up to the cap.
	CatchUpBackfill CatchUpPolicy = "backfill"
	// CatchUpLatest materializes only the most recent missed occurrence.
	CatchUpLatest CatchUpPolicy = "latest"
)

// Config holds application configuration
type Config struct {
	Env string

	// Server
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Pipeline
	PipelineAPIKey string

	// Recurring advancer
	Timezone       *time.Location
	CatchUpPolicy  CatchUpPolicy
	MaxCatchUp     int
	AdvanceTimeout time.Duration

	// Telemetry
	MetricsPort  string
	OTLPEndpoint string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "moneta"),
		DBPassword: getEnv("DB_PASSWORD", "moneta"),
		DBName:     getEnv("DB_NAME", "moneta"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		PipelineAPIKey: os.Getenv("PIPELINE_API_KEY"),

		MetricsPort:  getEnv("METRICS_PORT", "9464"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.JWTExpirationDur, err = getDuration("JWT_EXPIRES_IN", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.AdvanceTimeout, err = getDuration("ADVANCE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	tz := getEnv("APP_TIMEZONE", "UTC")
	if cfg.Timezone, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", tz, err)
	}

	policy := CatchUpPolicy(strings.ToLower(getEnv("RECURRING_CATCHUP_POLICY", string(CatchUpBackfill))))
	if policy != CatchUpBackfill && policy != CatchUpLatest {
		return nil, fmt.Errorf("invalid RECURRING_CATCHUP_POLICY %q: must be backfill or latest", policy)
	}
	cfg.CatchUpPolicy = policy

	maxCatchUp, err := strconv.Atoi(getEnv("RECURRING_MAX_CATCHUP", "60"))
	if err != nil || maxCatchUp < 1 {
		return nil, fmt.Errorf("RECURRING_MAX_CATCHUP must be a positive integer")
	}
	cfg.MaxCatchUp = maxCatchUp

	appConfig = cfg
	return cfg, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// DatabaseURL returns the postgres:// URL used by golang-migrate.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}
