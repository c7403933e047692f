package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	DefaultOrgID int64

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RateLimit RateLimitConfig
}

// RateLimitConfig configures the redis-backed limiter used by the
// interactive payment quote endpoint and the coverage-save lock.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	QuoteRate  float64
	QuoteBurst int

	CoverageLockTTLSeconds int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "tutorledger"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		DefaultOrgID: getenvInt64("DEFAULT_ORG", 0),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:       getenv("DATABASE_TYPE", "postgres"),
		DBHost:       getenv("DATABASE_HOST", "localhost"),
		DBPort:       getenv("DATABASE_PORT", "5432"),
		DBName:       getenv("DATABASE_NAME", "tutorledger"),
		DBUser:       getenv("DATABASE_USER", "postgres"),
		DBPassword:   getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:    getenv("DATABASE_SSLMODE", "disable"),

		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),

		RateLimit: RateLimitConfig{
			Enabled:                getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:              getenv("RATE_LIMIT_REDIS_ADDR", ""),
			RedisPassword:          getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:                getenvInt("RATE_LIMIT_REDIS_DB", 0),
			QuoteRate:              getenvFloat("RATE_LIMIT_QUOTE_RATE", 10),
			QuoteBurst:             getenvInt("RATE_LIMIT_QUOTE_BURST", 20),
			CoverageLockTTLSeconds: getenvInt("RATE_LIMIT_COVERAGE_LOCK_TTL", 10),
		},
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
