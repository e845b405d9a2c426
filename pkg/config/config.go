package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the RFV service and CLI
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Transaction stores
	Database DatabaseConfig
	MySQL    MySQLConfig

	// Result cache
	Redis RedisConfig

	// Segmentation
	RFV RFVConfig

	// HTTP upload limits
	Upload UploadConfig

	// Drop-folder watcher
	Watch WatchConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// MySQLConfig holds the MySQL/MariaDB transaction store DSN
type MySQLConfig struct {
	DSN      string // mysql://, mariadb:// or native driver DSN
	MaxConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// RFVConfig holds segmentation run settings
type RFVConfig struct {
	ActionsFile string        // optional YAML action table
	Source      string        // postgres | mysql
	SourceTable string        // table holding the raw transactions
	CacheTTL    time.Duration // TTL of cached segmentation tables
	Schedule    string        // cron expression (with seconds) for the refresh job
	NotifyURL   string        // optional webhook called after each scheduled refresh
}

// UploadConfig bounds the analyze endpoint
type UploadConfig struct {
	MaxBytes   int64
	RatePerSec float64
	Burst      int
}

// WatchConfig holds the drop-folder watcher directories
type WatchConfig struct {
	Dir    string
	OutDir string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		MySQL: MySQLConfig{
			DSN:      getEnv("MYSQL_DSN", ""),
			MaxConns: getEnvAsInt("MYSQL_MAX_CONNS", 10),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		RFV: RFVConfig{
			ActionsFile: getEnv("RFV_ACTIONS_FILE", ""),
			Source:      getEnv("RFV_SOURCE", "postgres"),
			SourceTable: getEnv("RFV_SOURCE_TABLE", "transactions"),
			CacheTTL:    getEnvAsDuration("RFV_CACHE_TTL", "10m"),
			Schedule:    getEnv("RFV_SCHEDULE", "0 0 3 * * *"),
			NotifyURL:   getEnv("RFV_NOTIFY_URL", ""),
		},

		Upload: UploadConfig{
			MaxBytes:   int64(getEnvAsInt("UPLOAD_MAX_BYTES", 32<<20)),
			RatePerSec: getEnvAsFloat("UPLOAD_RATE_PER_SEC", 2),
			Burst:      getEnvAsInt("UPLOAD_BURST", 5),
		},

		Watch: WatchConfig{
			Dir:    getEnv("WATCH_DIR", "./inbox"),
			OutDir: getEnv("WATCH_OUT_DIR", "./outbox"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.RFV.Source != "postgres" && c.RFV.Source != "mysql" {
		return fmt.Errorf("RFV_SOURCE must be one of: postgres, mysql")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be > 0")
	}
	if c.Upload.RatePerSec <= 0 || c.Upload.Burst <= 0 {
		return fmt.Errorf("UPLOAD_RATE_PER_SEC and UPLOAD_BURST must be > 0")
	}

	return nil
}

// RequireDatabase reports an error when a DB-backed command runs without DATABASE_URL
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// loadEnvFile tries to load .env from the working directory or next to the executable
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
