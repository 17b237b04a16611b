package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Blob backends.
const (
	BlobBackendPostgres = "postgres"
	BlobBackendGCS      = "gcs"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL         string
	DBConnectMaxElapsed time.Duration
	MigrationsPath      string
	Port                string
	IsProduction        bool
	JWTSecret           string
	JWTExpiryDuration   time.Duration
	JWTIssuer           string
	CORSAllowedOrigins  []string
	RateLimit           string
	MaxUploadBytes      int64
	BlobBackend         string
	GCSBucket           string
	GCSCredentialsFile  string
	GeminiAPIKey        string
	GeminiModel         string
	CategoryRulesFile   string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("DB_CONNECT_MAX_ELAPSED", "30s")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "fintrack")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	viper.SetDefault("BLOB_BACKEND", BlobBackendPostgres)
	viper.SetDefault("GCS_BUCKET", "")
	viper.SetDefault("GCS_CREDENTIALS_FILE", "")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	viper.SetDefault("CATEGORY_RULES_FILE", "")

	// Environment variables override both the defaults and .env values.
	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:        viper.GetString("PGSQL_URL"),
		MigrationsPath:     viper.GetString("MIGRATIONS_PATH"),
		Port:               viper.GetString("PORT"),
		IsProduction:       viper.GetBool("IS_PRODUCTION"),
		JWTSecret:          viper.GetString("JWT_SECRET"),
		JWTIssuer:          viper.GetString("JWT_ISSUER"),
		CORSAllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		RateLimit:          viper.GetString("RATE_LIMIT"),
		MaxUploadBytes:     viper.GetInt64("MAX_UPLOAD_BYTES"),
		BlobBackend:        strings.ToLower(viper.GetString("BLOB_BACKEND")),
		GCSBucket:          viper.GetString("GCS_BUCKET"),
		GCSCredentialsFile: viper.GetString("GCS_CREDENTIALS_FILE"),
		GeminiAPIKey:       viper.GetString("GEMINI_API_KEY"),
		GeminiModel:        viper.GetString("GEMINI_MODEL"),
		CategoryRulesFile:  viper.GetString("CATEGORY_RULES_FILE"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	var err error
	if cfg.JWTExpiryDuration, err = parseDuration("JWT_EXPIRY_DURATION", time.Hour); err != nil {
		return nil, err
	}
	if cfg.DBConnectMaxElapsed, err = parseDuration("DB_CONNECT_MAX_ELAPSED", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}

	switch cfg.BlobBackend {
	case BlobBackendPostgres:
	case BlobBackendGCS:
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET is required when BLOB_BACKEND=%s", BlobBackendGCS)
		}
	default:
		return nil, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.BlobBackend)
	}

	return cfg, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := viper.GetString(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, raw, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
