package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"portfolio/api/internal/seed"
	"portfolio/api/internal/store"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load portfolio content from a YAML file into an empty database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()
		file, err := seed.Parse(f)
		if err != nil {
			return err
		}

		rt, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		if err := rt.migrate(ctx); err != nil {
			return err
		}

		summary, err := seed.Load(ctx, seed.TargetsFrom(store.NewPostgresStore(rt.db)), file, rt.logger)
		if errors.Is(err, seed.ErrAlreadySeeded) {
			rt.logger.Warn().Msg("portfolio already seeded, nothing to do")
			return nil
		}
		if err != nil {
			return err
		}
		event := rt.logger.Info()
		for collection, count := range summary {
			event = event.Int(collection, count)
		}
		event.Msg("seed loaded")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "db/seed/portfolio.yaml", "seed YAML file")
}
