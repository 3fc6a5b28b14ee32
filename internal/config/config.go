package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Source kinds accepted by FLEET_SOURCE
const (
	SourceMock     = "mock"
	SourceHTTP     = "http"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config holds all configuration for the dashboard API
type Config struct {
	// HTTP
	Port           string   `validate:"required,numeric"`
	AllowedOrigins []string `validate:"min=1,dive,required"`
	StaticDir      string

	// Fleet source
	FleetSource  string        `validate:"oneof=mock http sqlite postgres"`
	FleetAPIURL  string        `validate:"required_if=FleetSource http,omitempty,url"`
	FetchTimeout time.Duration `validate:"gt=0"`
	FetchRetries int           `validate:"gte=1,lte=10"`
	LoadDelay    time.Duration `validate:"gte=0"`
	SQLitePath   string        `validate:"required_if=FleetSource sqlite"`
	DatabaseURL  string        `validate:"required_if=FleetSource postgres"`

	// Sessions
	SessionTTL time.Duration `validate:"gte=0"`

	// Selection events
	NATSURL           string `validate:"omitempty,url"`
	NATSSubjectPrefix string `validate:"required"`
}

// Load reads .env files and environment variables with sensible defaults,
// then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		StaticDir:      getEnv("STATIC_DIR", ""),

		FleetSource:  strings.ToLower(getEnv("FLEET_SOURCE", SourceMock)),
		FleetAPIURL:  getEnv("FLEET_API_URL", ""),
		FetchTimeout: time.Duration(getEnvInt("FLEET_FETCH_TIMEOUT_SEC", 15)) * time.Second,
		FetchRetries: getEnvInt("FLEET_FETCH_RETRIES", 3),
		LoadDelay:    time.Duration(getEnvInt("LOAD_DELAY_MS", 500)) * time.Millisecond,
		SQLitePath:   getEnv("SQLITE_DATABASE", "data/fleet.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		SessionTTL: time.Duration(getEnvInt("SESSION_TTL_MIN", 30)) * time.Minute,

		NATSURL:           getEnv("NATS_URL", ""),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "fleetview.selection"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
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
	return out
}
