package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Import        ImportConfig
	Storage       StorageConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	ShutdownTimeout    time.Duration
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	SQLitePath string
}

type AuthConfig struct {
	JWTSecret string
}

type ObservabilityConfig struct {
	MetricsEnabled   bool
	TracingEnabled   bool
	TraceSampleRatio float64
}

type ImportConfig struct {
	MaxFileBytes   int64
	PreviewRows    int
	SignConvention string
	Currency       string
	StaleAfter     time.Duration
	// MerchantBrands extend the built-in merchant names, in priority order.
	MerchantBrands []MerchantBrand
}

// MerchantBrand maps a description pattern to a display name.
type MerchantBrand struct {
	Pattern string
	Name    string
}

type StorageConfig struct {
	Type      string
	LocalPath string
	GCSBucket string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 2),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 5),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DATABASE_DRIVER", DriverPostgres),
			Host:       getEnv("POSTGRES_HOST", "localhost"),
			Port:       getEnvAsInt("POSTGRES_PORT", 5469),
			User:       getEnv("POSTGRES_USER", "postgres"),
			Password:   getEnv("POSTGRES_PASSWORD", "postgres"),
			Database:   getEnv("POSTGRES_DB", "echo-dev"),
			SSLMode:    getEnv("POSTGRES_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "echo-import.db"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled:   getEnvAsBool("METRICS_ENABLED", true),
			TracingEnabled:   getEnvAsBool("TRACING_ENABLED", false),
			TraceSampleRatio: getEnvAsFloat("TRACE_SAMPLE_RATIO", 1),
		},
		Import: ImportConfig{
			MaxFileBytes:   int64(getEnvAsInt("IMPORT_MAX_FILE_BYTES", 5<<20)),
			PreviewRows:    getEnvAsInt("IMPORT_PREVIEW_ROWS", 10),
			SignConvention: getEnv("IMPORT_SIGN_CONVENTION", "negative_is_income"),
			Currency:       getEnv("IMPORT_CURRENCY", "EUR"),
			StaleAfter:     getEnvAsDuration("IMPORT_STALE_AFTER", 30*time.Minute),
		},
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "none"),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			GCSBucket: getEnv("STORAGE_GCS_BUCKET", ""),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.Database.Driver != DriverPostgres && cfg.Database.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Import.MaxFileBytes <= 0 {
		return nil, errors.New("IMPORT_MAX_FILE_BYTES must be positive")
	}
	if cfg.Import.StaleAfter <= 0 {
		return nil, errors.New("IMPORT_STALE_AFTER must be positive")
	}
	if r := cfg.Observability.TraceSampleRatio; r < 0 || r > 1 {
		return nil, errors.New("TRACE_SAMPLE_RATIO must be between 0 and 1")
	}

	brands, err := parseBrands(os.Getenv("IMPORT_MERCHANT_BRANDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMPORT_MERCHANT_BRANDS: %w", err)
	}
	cfg.Import.MerchantBrands = brands

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// parseBrands reads "PATTERN=Name" entries separated by semicolons.
func parseBrands(raw string) ([]MerchantBrand, error) {
	var brands []MerchantBrand
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		i := strings.LastIndex(entry, "=")
		if i <= 0 || i == len(entry)-1 {
			return nil, fmt.Errorf("entry %q is not PATTERN=Name", entry)
		}
		brands = append(brands, MerchantBrand{
			Pattern: strings.TrimSpace(entry[:i]),
			Name:    strings.TrimSpace(entry[i+1:]),
		})
	}
	return brands, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
