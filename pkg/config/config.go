package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Queue lock modes
const (
	LockModeMemory = "memory"
	LockModeRedis  = "redis"
	LockModeNone   = "none"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Storage       StorageConfig
	Queue         QueueConfig
	Notifications NotificationsConfig
	Stream        StreamConfig
	OTEL          OTELConfig
	Log           LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig selects the record store backing the repositories
type StorageConfig struct {
	Driver      string
	SeedClinics bool
}

// QueueConfig holds queue and tracking behaviour
type QueueConfig struct {
	LockMode             string
	LockTTL              time.Duration
	PollInterval         time.Duration
	GetReadyThreshold    int
	MinutesPerPatient    int
	ClinicCacheTTLSecond int
}

// NotificationsConfig holds outbound notification settings
type NotificationsConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// StreamConfig holds settings of the standalone stream server
type StreamConfig struct {
	APIURL string
	Port   int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string
	Environment string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "waitwise"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
			SeedClinics: getEnvAsBool("SEED_CLINICS", true),
		},
		Queue: QueueConfig{
			LockMode:             strings.ToLower(getEnv("QUEUE_LOCK_MODE", LockModeMemory)),
			LockTTL:              getEnvAsDuration("QUEUE_LOCK_TTL", 5*time.Second),
			PollInterval:         getEnvAsDuration("TRACKER_POLL_INTERVAL", 5*time.Second),
			GetReadyThreshold:    getEnvAsInt("TRACKER_GET_READY_POSITION", 2),
			MinutesPerPatient:    getEnvAsInt("QUEUE_MINUTES_PER_PATIENT", 15),
			ClinicCacheTTLSecond: getEnvAsInt("CLINIC_CACHE_TTL_SECONDS", 30),
		},
		Notifications: NotificationsConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromEmail:      getEnv("NOTIFY_FROM_EMAIL", "no-reply@waitwise.health"),
			FromName:       getEnv("NOTIFY_FROM_NAME", "WaitWise Health"),
		},
		Stream: StreamConfig{
			APIURL: getEnv("WAITWISE_API_URL", "http://localhost:8080"),
			Port:   getEnvAsInt("STREAM_PORT", 8081),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "waitwise-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Log: LogConfig{
			Level:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Environment: strings.ToLower(getEnv("APP_ENV", "development")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q (want postgres or memory)", c.Storage.Driver)
	}

	switch c.Queue.LockMode {
	case LockModeMemory, LockModeRedis, LockModeNone:
	default:
		return fmt.Errorf("invalid QUEUE_LOCK_MODE %q (want memory, redis or none)", c.Queue.LockMode)
	}

	if c.Queue.LockMode == LockModeRedis && !c.Redis.Enabled {
		return fmt.Errorf("QUEUE_LOCK_MODE=redis requires REDIS_ENABLED=true")
	}
	if c.Queue.PollInterval <= 0 {
		return fmt.Errorf("TRACKER_POLL_INTERVAL must be positive")
	}
	if c.Queue.GetReadyThreshold < 1 {
		return fmt.Errorf("TRACKER_GET_READY_POSITION must be at least 1")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// DatabaseURL returns the PostgreSQL connection string in URL form, as
// expected by the migration driver
func (c *DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
