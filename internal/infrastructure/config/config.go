// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hbpr-validation-service/pkg/hbpr"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	Debug      bool

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Postgres master tables, empty disables them
	PostgresDSN string

	// Redis report cache, empty disables it
	RedisURL       string
	ReportCacheTTL time.Duration

	// Pipeline
	WorkerCount     int
	BatchSize       int
	ProcessInterval time.Duration

	// Inbox
	InboxDir          string
	InboxPollInterval time.Duration

	// Rules
	CarrierCode          string
	HomeNationalities    []string
	PremiumBagWeight     int
	EconomyBagWeight     int
	InfantBagWeight      int
	ForeignGoldBagWeight int
	NameMatchThreshold   float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		Debug:        getEnvAsBool("DEBUG", false),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "hbpr"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		RedisURL:       getEnv("REDIS_URL", ""),
		ReportCacheTTL: time.Duration(getEnvAsInt("REPORT_CACHE_TTL", 300)) * time.Second,

		WorkerCount:     getEnvAsInt("WORKER_COUNT", 4),
		BatchSize:       getEnvAsInt("BATCH_SIZE", 6),
		ProcessInterval: time.Duration(getEnvAsInt("PROCESS_INTERVAL", 30)) * time.Second,

		InboxDir:          getEnv("INBOX_DIR", ""),
		InboxPollInterval: time.Duration(getEnvAsInt("INBOX_POLL_INTERVAL", 10)) * time.Second,

		CarrierCode:          getEnv("CARRIER_CODE", "CA"),
		HomeNationalities:    getEnvAsList("HOME_NATIONALITIES", []string{"CHN", "CN"}),
		PremiumBagWeight:     getEnvAsInt("PREMIUM_BAG_WEIGHT", 32),
		EconomyBagWeight:     getEnvAsInt("ECONOMY_BAG_WEIGHT", 23),
		InfantBagWeight:      getEnvAsInt("INFANT_BAG_WEIGHT", 23),
		ForeignGoldBagWeight: getEnvAsInt("FOREIGN_GOLD_BAG_WEIGHT", 23),
		NameMatchThreshold:   getEnvAsFloat("NAME_MATCH_THRESHOLD", 0.95),
	}

	return config, nil
}

// Rules builds the rule set of the validator. The cabin table is left to
// the caller, which may load it from the master table.
func (c *Config) Rules() hbpr.Rules {
	rules := hbpr.DefaultRules()
	rules.CarrierCode = c.CarrierCode
	rules.HomeNationalities = c.HomeNationalities
	rules.PremiumPieceWeight = c.PremiumBagWeight
	rules.EconomyPieceWeight = c.EconomyBagWeight
	rules.InfantWeight = c.InfantBagWeight
	rules.ForeignGoldWeight = c.ForeignGoldBagWeight
	rules.NameMatchThreshold = c.NameMatchThreshold
	return rules
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
