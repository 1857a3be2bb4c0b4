package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"civictrack/models"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	// Server
	Port        string
	GinMode     string
	CORSOrigins []string
	AppEnv      string

	// Logging
	Debug    bool
	LogLevel string

	// Storage
	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string
	StoreTimeout  time.Duration
	LegacyEnabled bool

	// Redis rate limiting
	RedisAddress    string
	RedisPassword   string
	IssueLimitQueue string
	IssueDailyLimit int

	// Auth
	JWTSecret    string
	AdminUserIDs []string

	// Issues
	DefaultLocation models.Location
	DefaultRadiusKm float64
	StatusPolicy    string

	// Error reporting
	SentryDSN string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "release"),
		CORSOrigins: parseCSV(getEnv("CORS_ORIGINS", "*")),
		AppEnv:      getEnv("APP_ENV", "development"),

		Debug:    parseBool(getEnv("DEBUG", "false")),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoDatabase: getEnv("MONGODB_DATABASE", "civictrack"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		StoreTimeout:  parseDuration(getEnv("STORE_TIMEOUT", "10s"), 10*time.Second),
		LegacyEnabled: parseBool(getEnv("LEGACY_API_ENABLED", "true")),

		RedisAddress:    getEnv("REDIS_ADDRESS", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		IssueLimitQueue: getEnv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "civictrack:issue-limit"),
		IssueDailyLimit: parseInt(getEnv("ISSUE_DAILY_LIMIT", "10"), 10),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		AdminUserIDs: parseCSV(getEnv("ADMIN_USER_IDS", "")),

		// Hyderabad city centre
		DefaultLocation: models.Location{
			Lat: parseFloat(getEnv("DEFAULT_LAT", "17.3850"), 17.3850),
			Lng: parseFloat(getEnv("DEFAULT_LNG", "78.4867"), 78.4867),
		},
		DefaultRadiusKm: parseFloat(getEnv("DEFAULT_RADIUS_KM", "0"), 0),
		StatusPolicy:    strings.ToLower(getEnv("STATUS_POLICY", "any")),

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_DRIVER=%s", DriverMongo)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if !c.DefaultLocation.Valid() {
		return fmt.Errorf("DEFAULT_LAT/DEFAULT_LNG out of range")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
