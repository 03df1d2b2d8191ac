package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"portfolio/api/internal/app"
	"portfolio/api/internal/assets"
	"portfolio/api/internal/authpw"
	"portfolio/api/internal/cache"
	"portfolio/api/internal/email"
	"portfolio/api/internal/export"
	"portfolio/api/internal/logging"
	"portfolio/api/internal/search"
	"portfolio/api/internal/session"
	"portfolio/api/internal/snapshot"
	"portfolio/api/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Apply migrations and serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.migrate(ctx); err != nil {
		return err
	}
	cfg, logger := rt.cfg, rt.logger

	pg := store.NewPostgresStore(rt.db)
	passwords := authpw.NewService(pg)
	deps := app.Dependencies{
		Store:     pg,
		Content:   app.CollectionsFrom(pg),
		Sessions:  pg,
		Passwords: passwords,
		Exporter:  export.NewService(""),
		Snapshots: snapshot.New(cfg.SnapshotsDir),
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, using postgres sessions without a sections cache")
		} else {
			defer redisStore.Close()
			deps.Sessions = redisStore
			deps.Cache = cache.NewSections(redisStore.Client(), cfg.SectionsCacheTTL)
			deps.Checks = append(deps.Checks, app.Checker{Name: "redis", Check: redisStore.Ping})
		}
	}

	var remote assets.Destroyer
	minioStore, err := newAssetStore(cfg)
	if err != nil {
		return err
	}
	if minioStore != nil {
		remote = minioStore
		deps.Uploads = minioStore
		deps.Checks = append(deps.Checks, app.Checker{Name: "assets", Check: minioStore.Ping})
	} else {
		logger.Warn().Msg("asset store not configured, deletions will queue in the outbox")
	}
	janitor := assets.NewJanitor(remote, pg, logging.Component(logger, "assets"))
	deps.Janitor = janitor
	go janitor.Run(ctx, cfg.AssetSweepInterval)

	var engine search.Engine
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meili := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, logging.Component(logger, "meili"))
		defer meili.Close()
		engine = meili
		deps.Checks = append(deps.Checks, app.Checker{Name: "search", Check: func(context.Context) error {
			if !meili.Healthy() {
				return errors.New("meilisearch unhealthy")
			}
			return nil
		}})
	}
	pgfts := search.NewPgFTS(rt.db)
	searchService := search.NewService(engine, pgfts, pgfts, logging.Component(logger, "search"))
	deps.Search = searchService
	go searchService.ReindexAll(ctx)

	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		Owner:    cfg.OwnerEmail,
	})
	if mailer.IsConfigured() {
		deps.Mailer = mailer
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		admin, err := passwords.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		if err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
		logger.Info().Str("user_id", admin.ID).Str("email", admin.Email).Msg("admin account ready")
	}

	service := app.New(cfg, deps, logger)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.NewHTTPServer(service, cfg.CORSOrigin).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("portfolio api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := janitor.Wait(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("asset releases still running at shutdown")
	}
	searchService.Wait()
	return nil
}
