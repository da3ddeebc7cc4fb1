package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion       string
	PriceTable      string
	KpiTable        string
	SymbolTable     string
	EventBusName    string
	KpiQueueURL     string
	CleanupQueueURL string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Cache configuration
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// Logging
	LogLevel string

	// Feature flags
	EnableCORS bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		PriceTable:    getEnv("PRICE_TABLE", "PriceSeries"),
		KpiTable:      getEnv("KPI_TABLE", "KpiSeries"),
		SymbolTable:   getEnv("SYMBOL_TABLE", "TrackedSymbols"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "stocktracker-events"),

		KpiQueueURL:     getEnv("KPI_QUEUE_URL", ""),
		CleanupQueueURL: getEnv("CLEANUP_QUEUE_URL", ""),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		// Cache configuration
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      getEnvDuration("CACHE_TTL", 30*time.Minute),

		// Logging and features
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.PriceTable == "" || c.KpiTable == "" || c.SymbolTable == "" {
		return fmt.Errorf("PRICE_TABLE, KPI_TABLE and SYMBOL_TABLE are required")
	}
	if c.Environment == "production" {
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required in production")
		}
		if c.KpiQueueURL == "" {
			return fmt.Errorf("KPI_QUEUE_URL is required in production")
		}
		if c.CleanupQueueURL == "" {
			return fmt.Errorf("CLEANUP_QUEUE_URL is required in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
