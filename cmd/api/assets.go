package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"portfolio/api/internal/assets"
	"portfolio/api/internal/config"
	"portfolio/api/internal/logging"
	"portfolio/api/internal/store"
)

var sweepLimit int

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Manage the remote asset outbox",
}

var assetsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Retry queued asset deletions once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		rt, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		remote, err := newAssetStore(rt.cfg)
		if err != nil {
			return err
		}
		if remote == nil {
			return fmt.Errorf("asset store is not configured")
		}
		janitor := assets.NewJanitor(remote, store.NewPostgresStore(rt.db), logging.Component(rt.logger, "assets"))
		result, err := janitor.Sweep(ctx, sweepLimit)
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		rt.logger.Info().Int("attempted", result.Attempted).Int("deleted", result.Deleted).
			Int("skipped", result.Skipped).Int("failed", result.Failed).Msg("asset sweep finished")
		return nil
	},
}

func init() {
	assetsSweepCmd.Flags().IntVar(&sweepLimit, "limit", 100, "maximum queued deletions to attempt")
	assetsCmd.AddCommand(assetsSweepCmd)
}

// newAssetStore returns nil without error when no asset store is configured.
func newAssetStore(cfg config.Config) (*assets.MinioStore, error) {
	if !cfg.AssetsConfigured() {
		return nil, nil
	}
	minioStore, err := assets.NewMinioStore(assets.Config{
		Endpoint:      cfg.AssetEndpoint,
		AccessKey:     cfg.AssetAccessKey,
		SecretKey:     cfg.AssetSecretKey,
		Bucket:        cfg.AssetBucket,
		Region:        cfg.AssetRegion,
		UseSSL:        cfg.AssetUseSSL,
		PublicBaseURL: cfg.AssetPublicBaseURL,
		UploadFolder:  cfg.AssetUploadFolder,
	})
	if err != nil {
		return nil, fmt.Errorf("asset store: %w", err)
	}
	return minioStore, nil
}
