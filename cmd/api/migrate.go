package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"portfolio/api/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [down]",
	Short: "Apply pending migrations, or roll back the latest with down",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		if len(args) == 0 {
			return rt.migrate(ctx)
		}
		if args[0] != "down" {
			return fmt.Errorf("unknown migrate direction %q", args[0])
		}
		name, err := store.RollbackMigration(ctx, rt.db, rt.cfg.MigrationsDir)
		if err != nil {
			return fmt.Errorf("rollback migration: %w", err)
		}
		if name == "" {
			rt.logger.Info().Msg("no migration to roll back")
			return nil
		}
		rt.logger.Info().Str("migration", name).Msg("migration rolled back")
		return nil
	},
}
