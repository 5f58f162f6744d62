package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/yamdb/app"
	"github.com/kevinaaaquil/yamdb/config"
	"github.com/kevinaaaquil/yamdb/handlers"
	"github.com/kevinaaaquil/yamdb/logging"
	"github.com/kevinaaaquil/yamdb/service"
	"github.com/kevinaaaquil/yamdb/validation"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)
	if err := config.ValidateEnv(cfg); err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		slog.Error("storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			slog.Error("storage close", "error", err)
		}
	}()

	if err := app.EnsureAdmin(ctx, st, cfg); err != nil {
		slog.Error("bootstrap", "error", err)
		os.Exit(1)
	}

	limiter, closeLimiter, err := app.Limiter(cfg)
	if err != nil {
		slog.Error("rate limiter", "error", err)
		os.Exit(1)
	}
	if closeLimiter != nil {
		defer closeLimiter()
	} else {
		slog.Warn("REDIS_ADDR not set; auth endpoints are not rate limited")
	}

	v := validation.New()
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	auth := service.NewAuthService(st, app.Mailer(cfg), tokens, v, service.AuthOptions{
		HashCodes: cfg.HashCodes,
		CodeTTL:   cfg.ConfirmationTTL,
	})

	router := handlers.NewRouter(handlers.Deps{
		Store:      st,
		Auth:       auth,
		Tokens:     tokens,
		Validator:  v,
		Limiter:    limiter,
		PageSize:   cfg.PageSize,
		TrustProxy: cfg.TrustProxy,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("server listening", "addr", server.Addr, "storage", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
}
