package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// placeholderAPIKey is the value shipped in .env.example
const placeholderAPIKey = "your_api_key_here"

// ErrMissingAPIKey is returned when no usable FMP API key is configured
var ErrMissingAPIKey = errors.New("FMP API key not configured. Add your key to the .env file")

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Database (optional: scan history)
	Database DatabaseConfig

	// Redis (optional: historical cache, shared rate limit)
	Redis RedisConfig

	// External APIs
	FMP FMPConfig

	// Scan defaults
	Scan ScanDefaults

	// Reports
	ReportDir string

	// Universe CSV (empty = embedded S&P 500 list)
	UniverseFile string

	// Strategy profile (YAML, optional)
	ProfilePath string

	// Scheduler
	ScanSchedule string

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
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// FMPConfig holds Financial Modeling Prep API configuration
type FMPConfig struct {
	APIKey   string
	BaseURL  string
	MaxCalls int           // 스캔 1회당 API 호출 예산
	Pacing   time.Duration // 호출 간 최소 간격
	Timeout  time.Duration

	// PerMinute caps calls across processes via Redis (0 = off)
	PerMinute int
}

// Validate checks that the API key is present and not the placeholder value
func (f FMPConfig) Validate() error {
	if f.APIKey == "" || f.APIKey == placeholderAPIKey {
		return ErrMissingAPIKey
	}
	if f.MaxCalls <= 0 {
		return fmt.Errorf("FMP_MAX_CALLS must be positive, got %d", f.MaxCalls)
	}
	return nil
}

// ScanDefaults holds the screening parameters used when a request does not override them
type ScanDefaults struct {
	MarketCapMin int64
	VolumeMin    int64
	ATHMin       float64
	ATHMax       float64
	TopN         int
	Workers      int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "5000"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
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

		// External APIs
		FMP: FMPConfig{
			APIKey:   getEnv("FMP_API_KEY", ""),
			BaseURL:  getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/stable"),
			MaxCalls: getEnvAsInt("FMP_MAX_CALLS", 200),
			Pacing:   getEnvAsDuration("FMP_PACING", "150ms"),
			Timeout:  getEnvAsDuration("FMP_TIMEOUT", "30s"),

			PerMinute: getEnvAsInt("FMP_RATE_LIMIT", 300),
		},

		Scan: ScanDefaults{
			MarketCapMin: getEnvAsInt64("SCAN_MARKET_CAP_MIN", 1_000_000_000),
			VolumeMin:    getEnvAsInt64("SCAN_VOLUME_MIN", 500_000),
			ATHMin:       getEnvAsFloat("SCAN_ATH_MIN", 10.0),
			ATHMax:       getEnvAsFloat("SCAN_ATH_MAX", 60.0),
			TopN:         getEnvAsInt("SCAN_TOP_N", 15),
			Workers:      getEnvAsInt("SCAN_WORKERS", 1),
		},

		ReportDir:    getEnv("REPORT_DIR", "output"),
		UniverseFile: getEnv("UNIVERSE_FILE", ""),
		ProfilePath:  getEnv("SCAN_PROFILE", ""),
		ScanSchedule: getEnv("SCAN_SCHEDULE", "0 30 16 * * MON-FRI"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable.
// The FMP key is checked separately (FMPConfig.Validate) so that commands
// which never call the API (universe, api health) still start without one.
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.Scan.ATHMin > c.Scan.ATHMax {
		return fmt.Errorf("SCAN_ATH_MIN (%.1f) must not exceed SCAN_ATH_MAX (%.1f)", c.Scan.ATHMin, c.Scan.ATHMax)
	}

	if c.Scan.TopN <= 0 {
		return fmt.Errorf("SCAN_TOP_N must be positive")
	}

	if c.Scan.Workers <= 0 {
		return fmt.Errorf("SCAN_WORKERS must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
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
			// override: .env 값이 셸 환경변수보다 우선
			_ = godotenv.Overload(path)
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
