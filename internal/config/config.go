package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	APIBaseURL      string
	AnalyticsURL    string
	HTTPTimeout     time.Duration
	RateLimit       float64 // requests per second sent to the library API
	RateBurst       int
	PageSize        int
	SessionDBPath   string
	DevServerPort   string
	OpenAPISpecPath string
	AllowedOrigins  string
	Environment     string // development, staging, production
	LogLevel        string
	LogFormat       string
}

// Load loads configuration from environment variables and validates for production
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		APIBaseURL:      getEnv("LIBRARY_API_URL", "http://localhost:8000/api/"),
		AnalyticsURL:    getEnv("ANALYTICS_API_URL", "http://127.0.0.1:5001"),
		HTTPTimeout:     getDuration("HTTP_TIMEOUT", 10*time.Second),
		RateLimit:       getFloat("API_RATE_LIMIT", 10),
		RateBurst:       getInt("API_RATE_BURST", 20),
		PageSize:        getInt("PAGE_SIZE", 4),
		SessionDBPath:   getEnv("SESSION_DB_PATH", defaultSessionPath()),
		DevServerPort:   getEnv("DEV_SERVER_PORT", "8000"),
		OpenAPISpecPath: getEnv("OPENAPI_SPEC_PATH", ""),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8000"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// Validate checks configuration for security and correctness
func (c *Config) Validate() error {
	if err := validateURL("LIBRARY_API_URL", c.APIBaseURL); err != nil {
		return err
	}
	if err := validateURL("ANALYTICS_API_URL", c.AnalyticsURL); err != nil {
		return err
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive (got %s)", c.HTTPTimeout)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive (got %d)", c.PageSize)
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("API_RATE_LIMIT and API_RATE_BURST must be positive")
	}

	// Tokens travel in a header, so production must not talk plain HTTP
	if c.IsProduction() {
		u, _ := url.Parse(c.APIBaseURL)
		if u.Scheme != "https" {
			return fmt.Errorf("LIBRARY_API_URL must use https in production (got %s)", u.Scheme)
		}
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == ""
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL (got %q)", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host (got %q)", key, raw)
	}
	return nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "library-session.db"
	}
	return filepath.Join(home, ".library-client", "session.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using %g", key, value, defaultValue)
		return defaultValue
	}
	return f
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
