// Package app wires configuration into the concrete store, mailer and limiter
// shared by the API server and yamdbctl.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kevinaaaquil/yamdb/config"
	"github.com/kevinaaaquil/yamdb/middleware"
	"github.com/kevinaaaquil/yamdb/ratelimit"
	"github.com/kevinaaaquil/yamdb/service"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/kevinaaaquil/yamdb/store/memory"
	"github.com/kevinaaaquil/yamdb/store/postgres"
)

// OpenStore connects the backend named by cfg.StorageDriver.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		pg, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.DriverMemory:
		slog.Warn("using in-memory storage; data is lost on exit")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// Mailer returns an SMTP mailer, or a logging one when SMTP_HOST is unset.
func Mailer(cfg *config.Config) service.Mailer {
	if cfg.SMTPHost == "" {
		slog.Warn("SMTP_HOST not set; confirmation codes will be logged instead of mailed")
		return service.LogMailer{}
	}
	return service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
}

// Limiter returns the Redis-backed auth limiter and a close func. Both are nil
// when REDIS_ADDR is unset, which disables rate limiting.
func Limiter(cfg *config.Config) (middleware.Limiter, func() error, error) {
	if cfg.RedisAddr == "" {
		return nil, nil, nil
	}
	l, err := ratelimit.NewFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "yamdb:auth", cfg.AuthRateLimit, cfg.AuthRateWindow)
	if err != nil {
		return nil, nil, err
	}
	return l, l.Close, nil
}

// EnsureAdmin creates or promotes the ADMIN_USERNAME account when configured.
func EnsureAdmin(ctx context.Context, st store.Store, cfg *config.Config) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	user, created, err := service.EnsureSuperuser(ctx, st, cfg.AdminUsername, cfg.AdminEmail)
	if err != nil {
		return fmt.Errorf("ensure admin %q: %w", cfg.AdminUsername, err)
	}
	slog.Info("admin account ready", "username", user.Username, "created", created)
	return nil
}
