package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"portfolio/api/internal/config"
	"portfolio/api/internal/logging"
	"portfolio/api/internal/store"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Portfolio content API",
	Long: `api serves the portfolio content API and carries the operator
commands that manage its database, seed data and asset outbox.

Configuration is read from the environment, then from config.yaml in the
--config directory.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory holding an optional config.yaml")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, assetsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cmdEnv is what every subcommand needs before doing its own work.
type cmdEnv struct {
	cfg    config.Config
	logger zerolog.Logger
	db     *sql.DB
}

func openEnv(ctx context.Context) (*cmdEnv, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	db, err := store.Open(ctx, cfg.DatabaseURL, store.PoolConfig{})
	if err != nil {
		return nil, err
	}
	return &cmdEnv{cfg: cfg, logger: logger, db: db}, nil
}

func (r *cmdEnv) migrate(ctx context.Context) error {
	applied, err := store.ApplyMigrations(ctx, r.db, r.cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, name := range applied {
		r.logger.Info().Str("migration", name).Msg("migration applied")
	}
	return nil
}

func (r *cmdEnv) Close() {
	_ = r.db.Close()
}
