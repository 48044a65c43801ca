package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Catalog source kinds
const (
	CatalogSourceFile     = "file"
	CatalogSourceS3       = "s3"
	CatalogSourceDatabase = "database"
)

// Config holds all configuration for the application
type Config struct {
	// Ops server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Catalog configuration
	CatalogSource   string
	CatalogPath     string
	CatalogBucket   string
	CatalogKey      string
	CatalogRegion   string
	CatalogEndpoint string
	CatalogRefresh  time.Duration

	// Gemini configuration; enrichment is disabled without a key
	GeminiAPIKey string
	GeminiModel  string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string

	// Engine tuning
	EngineConfigPath string
	Engine           EngineConfig
}

// LoadConfig creates a new Config instance with values from an optional .env file,
// environment variables and secrets
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	env := GetEnvironment()
	cfg := &Config{}
	loadFromEnv(cfg)

	// Load sensitive values based on environment
	switch env {
	case CI:
		// CI passes everything through environment variables
	case Development, Test:
		loadDevSecrets(cfg)
	case Production:
		loadProdSecrets(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	engine, err := LoadEngineConfig(cfg.EngineConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine configuration: %w", err)
	}
	cfg.Engine = engine

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")

	cfg.DBDriver = getEnv("DB_DRIVER", "postgres")
	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = getEnv("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnv("DB_NAME", "momcare")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.SQLitePath = getEnv("SQLITE_PATH", "momcare.db")

	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPort = getEnv("REDIS_PORT", "6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	cfg.RedisURL = os.Getenv("REDIS_URL")

	cfg.CatalogSource = getEnv("CATALOG_SOURCE", CatalogSourceFile)
	cfg.CatalogPath = getEnv("CATALOG_PATH", "catalog.yaml")
	cfg.CatalogBucket = os.Getenv("CATALOG_BUCKET")
	cfg.CatalogKey = getEnv("CATALOG_KEY", "catalog/foods.yaml")
	cfg.CatalogRegion = os.Getenv("AWS_REGION")
	cfg.CatalogEndpoint = os.Getenv("CATALOG_S3_ENDPOINT")
	cfg.CatalogRefresh = getDuration("CATALOG_REFRESH_INTERVAL", 5*time.Minute)

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getEnv("GEMINI_MODEL", "gemini-1.5-flash")

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "json")
	cfg.LogOutput = os.Getenv("LOG_OUTPUT")

	cfg.EngineConfigPath = os.Getenv("ENGINE_CONFIG")
}

// loadDevSecrets overlays Docker secrets when they exist; plain environment
// variables are enough for local runs
func loadDevSecrets(cfg *Config) {
	if v := readSecret("db_password"); v != "" {
		cfg.DBPassword = v
	}
	if v := readSecret("redis_password"); v != "" {
		cfg.RedisPassword = v
	}
	if v := readSecret("gemini_api_key"); v != "" {
		cfg.GeminiAPIKey = v
	}
}

// loadProdSecrets loads sensitive values for production using ONLY Docker secrets
func loadProdSecrets(cfg *Config) {
	cfg.DBUser = readSecret("db_user")
	cfg.DBPassword = readSecret("db_password")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.RedisURL = readSecret("redis_url")
	cfg.GeminiAPIKey = readSecret("gemini_api_key")
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// PostgresDSN builds the lib/pq connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}
