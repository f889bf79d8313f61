package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Returns  ReturnsConfig
	App      AppConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the read-through cache configuration. An empty
// Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig holds event bus configuration. An empty URL disables
// event publication.
type NATSConfig struct {
	URL string
}

// ReturnsConfig holds the lifecycle policy knobs
type ReturnsConfig struct {
	// WindowDays is how long after delivery a customer may open a
	// return. The boundary day is inclusive.
	WindowDays int
	// ResponseDeadlineDays is how long a shop has to answer a
	// pending request before it expires.
	ResponseDeadlineDays int
	// AutoApproveExpired turns on the background sweep that approves
	// pending requests past their deadline.
	AutoApproveExpired bool
	// SweepInterval is how often the expiry sweep runs, in minutes.
	SweepIntervalMinutes int
	// SweepBatchSize caps how many expired requests one sweep handles.
	SweepBatchSize int
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string
	LogLevel    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "returns_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Returns: ReturnsConfig{
			WindowDays:           getEnvAsInt("RETURN_WINDOW_DAYS", 15),
			ResponseDeadlineDays: getEnvAsInt("SHOP_RESPONSE_DEADLINE_DAYS", 3),
			AutoApproveExpired:   getEnvAsBool("AUTO_APPROVE_EXPIRED", false),
			SweepIntervalMinutes: getEnvAsInt("EXPIRY_SWEEP_INTERVAL_MINUTES", 15),
			SweepBatchSize:       getEnvAsInt("EXPIRY_SWEEP_BATCH_SIZE", 100),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
	}

	if config.Returns.WindowDays < 1 {
		return nil, fmt.Errorf("RETURN_WINDOW_DAYS must be at least 1, got %d", config.Returns.WindowDays)
	}
	if config.Returns.ResponseDeadlineDays < 1 {
		return nil, fmt.Errorf("SHOP_RESPONSE_DEADLINE_DAYS must be at least 1, got %d", config.Returns.ResponseDeadlineDays)
	}

	return config, nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
