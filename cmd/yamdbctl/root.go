package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/yamdb/app"
	"github.com/kevinaaaquil/yamdb/config"
	"github.com/kevinaaaquil/yamdb/logging"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	storageDriver string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "yamdbctl",
	Short: "YaMDb maintenance commands",
	Long: `yamdbctl manages a YaMDb deployment outside the HTTP API.

Configuration is read from the environment and .env, like the server.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageDriver, "storage", "", "Storage driver override (mongo, postgres, memory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(superuserCmd)
}

// loadConfig reads the environment and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if storageDriver != "" {
		cfg.StorageDriver = storageDriver
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logging.Init(level)
	return cfg, nil
}

// withStore opens the configured store for the duration of fn.
func withStore(ctx context.Context, cfg *config.Config, fn func(store.Store) error) error {
	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StorageDriver, err)
	}
	defer st.Close(context.Background())
	return fn(st)
}
