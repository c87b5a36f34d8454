package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	UseMemoryStore     bool
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	RedisChannelPrefix string
	AuthJWTSecret      string
	CORSAllowedOrigins []string

	// Lead distribution engine
	LeadSLAWindow       time.Duration
	MaxSuppliersPerLead int
	UrgentThreshold     time.Duration
	FeedPageSize        int

	// Background work
	ExpirySweepInterval time.Duration
	OutboxPollInterval  time.Duration
	OutboxBatchSize     int

	// Public intake throttling
	IntakeRatePerSec float64
	IntakeBurst      int

	// DevSuppliersJSON seeds the in-memory supplier directory.
	DevSuppliersJSON string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real env vars win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		UseMemoryStore:     getEnvAsBool("USE_MEMORY_STORE", false),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		RedisChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", "parto:events:"),
		AuthJWTSecret:      getEnv("AUTH_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		LeadSLAWindow:       getEnvAsDuration("LEAD_SLA_WINDOW", 2*time.Hour),
		MaxSuppliersPerLead: getEnvAsInt("MAX_SUPPLIERS_PER_LEAD", 5),
		UrgentThreshold:     getEnvAsDuration("URGENT_THRESHOLD", 30*time.Minute),
		FeedPageSize:        getEnvAsInt("FEED_PAGE_SIZE", 10),

		ExpirySweepInterval: getEnvAsDuration("EXPIRY_SWEEP_INTERVAL", time.Minute),
		OutboxPollInterval:  getEnvAsDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:     getEnvAsInt("OUTBOX_BATCH_SIZE", 25),

		IntakeRatePerSec: getEnvAsFloat("INTAKE_RATE_PER_SEC", 1),
		IntakeBurst:      getEnvAsInt("INTAKE_BURST", 5),

		DevSuppliersJSON: getEnv("DEV_SUPPLIERS_JSON", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
