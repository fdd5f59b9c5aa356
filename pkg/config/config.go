package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// HTTP API
	API APIConfig

	// Scoring inputs/outputs
	Scoring ScoringConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Host           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int
	CacheTTL       time.Duration
}

// ScoringConfig locates snapshot, benchmark and report files
type ScoringConfig struct {
	DataDir       string
	BenchmarkDir  string
	OutputDir     string
	ConfigPath    string // YAML thresholds/weights, empty = built-in defaults
	ExpectedYears int
	BatchWorkers  int
}

// SchedulerConfig holds cron settings
type SchedulerConfig struct {
	RescoreSchedule string
	MaxRetries      int
	RetryDelay      time.Duration
	WebhookURL      string // 실행 결과 알림 (비어 있으면 비활성)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "equityscore"),
			User:            getEnv("DB_USER", "equityscore"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		API: APIConfig{
			Host:           getEnv("API_HOST", "0.0.0.0"),
			ReadTimeout:    getEnvAsDuration("API_READ_TIMEOUT", "15s"),
			WriteTimeout:   getEnvAsDuration("API_WRITE_TIMEOUT", "30s"),
			AllowedOrigins: getEnvAsList("API_CORS_ORIGINS", "*"),
			RateLimitRPS:   getEnvAsInt("RATE_LIMIT_RPS", 20),
			RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 40),
			CacheTTL:       getEnvAsDuration("API_CACHE_TTL", "10m"),
		},

		Scoring: ScoringConfig{
			DataDir:       getEnv("DATA_DIR", "data/raw"),
			BenchmarkDir:  getEnv("BENCHMARK_DIR", "data/benchmarks"),
			OutputDir:     getEnv("OUTPUT_DIR", "data/reports"),
			ConfigPath:    getEnv("SCORING_CONFIG", ""),
			ExpectedYears: getEnvAsInt("EXPECTED_YEARS", 6),
			BatchWorkers:  getEnvAsInt("BATCH_WORKERS", 4),
		},

		Scheduler: SchedulerConfig{
			RescoreSchedule: getEnv("RESCORE_SCHEDULE", "0 30 18 * * 1-5"),
			MaxRetries:      getEnvAsInt("SCHEDULER_MAX_RETRIES", 2),
			RetryDelay:      getEnvAsDuration("SCHEDULER_RETRY_DELAY", "1m"),
			WebhookURL:      getEnv("NOTIFY_WEBHOOK_URL", ""),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scoring.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Scoring.BenchmarkDir == "" {
		return fmt.Errorf("BENCHMARK_DIR is required")
	}
	if c.Scoring.ExpectedYears < 1 {
		return fmt.Errorf("EXPECTED_YEARS must be >= 1")
	}
	if c.Scoring.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be >= 1")
	}
	if c.API.RateLimitRPS < 1 || c.API.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be >= 1")
	}

	return nil
}

// HasDatabase reports whether a PostgreSQL source is configured
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
