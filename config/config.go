package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "change-me-in-production"

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port       string
	LogLevel   string
	PageSize   int
	TrustProxy bool // take the client address from X-Forwarded-For / X-Real-IP

	StorageDriver string
	MongoURI      string
	DBName        string
	DatabaseURL   string

	JWTSecret string
	TokenTTL  time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	RedisAddr       string
	RedisPassword   string
	AuthRateLimit   int
	AuthRateWindow  time.Duration
	HashCodes       bool
	ConfirmationTTL time.Duration

	AdminUsername string
	AdminEmail    string

	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
}

func Load() (*Config, error) {
	_ = os.Setenv("AWS_REGION", getEnv("AWS_REGION", "us-east-1"))

	var errs []error
	intVar := func(key string, fallback int) int {
		n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return n
	}
	durationVar := func(key string, fallback time.Duration) time.Duration {
		d, err := time.ParseDuration(getEnv(key, fallback.String()))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return d
	}
	boolVar := func(key string, fallback bool) bool {
		b, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return b
	}

	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		PageSize:   intVar("PAGE_SIZE", 10),
		TrustProxy: boolVar("TRUST_PROXY", false),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverMongo)),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("MONGODB_DB", "yamdb"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:  durationVar("TOKEN_TTL", 24*time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     intVar("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", "webmaster@localhost"),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		AuthRateLimit:   intVar("AUTH_RATE_LIMIT", 5),
		AuthRateWindow:  durationVar("AUTH_RATE_WINDOW", time.Minute),
		HashCodes:       boolVar("CONFIRMATION_CODE_HASHING", false),
		ConfirmationTTL: durationVar("CONFIRMATION_CODE_TTL", 0),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),

		S3Bucket:      getEnv("AWS_S3_BUCKET", ""),
		S3Region:      getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// OptionalEnvVars are logged at startup so you can confirm they are loaded when set.
var OptionalEnvVars = []string{
	"PORT",
	"LOG_LEVEL",
	"STORAGE_DRIVER",
	"SMTP_HOST",
	"REDIS_ADDR",
	"TRUST_PROXY",
	"AWS_S3_BUCKET",
	"ADMIN_USERNAME",
}

// ValidateEnv rejects configurations the server must not start with and logs
// which optional settings are in effect.
func ValidateEnv(cfg *Config) error {
	if cfg.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set to a strong secret (not the default change-me-in-production)")
	}
	switch cfg.StorageDriver {
	case DriverMongo:
		if cfg.MongoURI == "" || cfg.DBName == "" {
			return errors.New("MONGODB_URI and MONGODB_DB are required for the mongo driver")
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (use mongo, postgres or memory)", cfg.StorageDriver)
	}
	if cfg.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if cfg.RedisAddr != "" && (cfg.AuthRateLimit <= 0 || cfg.AuthRateWindow <= 0) {
		return errors.New("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive when REDIS_ADDR is set")
	}
	if (cfg.AdminUsername == "") != (cfg.AdminEmail == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_EMAIL must be set together")
	}

	for _, key := range OptionalEnvVars {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			slog.Info("env loaded", "key", key, "value", v)
		} else {
			slog.Debug("env not set (optional)", "key", key)
		}
	}
	return nil
}
