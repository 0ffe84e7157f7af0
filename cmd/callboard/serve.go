package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/MikeSquared-Agency/callboard/internal/api"
	"github.com/MikeSquared-Agency/callboard/internal/audit"
	"github.com/MikeSquared-Agency/callboard/internal/config"
	"github.com/MikeSquared-Agency/callboard/internal/ingester"
	slackalert "github.com/MikeSquared-Agency/callboard/internal/slack"
	"github.com/MikeSquared-Agency/callboard/internal/store"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func newServeCommand(cfg *config.Config) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply the schema before serving")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, migrate bool) error {
	slog.Info("callboard starting",
		"port", cfg.Port,
		"nats_url", cfg.NatsURL,
		"flush_interval", cfg.AuditFlushInterval,
		"flush_threshold", cfg.AuditFlushThreshold,
		"buffer_max", cfg.AuditBufferMax,
	)

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	slog.Info("database connected")

	if migrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	batcherCtx, stopBatcher := context.WithCancel(context.Background())
	bat := audit.New(db, audit.Config{
		FlushInterval:  cfg.AuditFlushInterval,
		FlushThreshold: cfg.AuditFlushThreshold,
		BufferMax:      cfg.AuditBufferMax,
	})

	if cfg.SlackBotToken != "" && cfg.SlackAlertChannel != "" {
		alerter := slackalert.NewAlerter(cfg.SlackBotToken, cfg.SlackAlertChannel)
		bat.SetAlerter(alerter.Notify)
		slog.Info("Slack alerter enabled", "channel", cfg.SlackAlertChannel)
	}

	var ing *ingester.Ingester
	if cfg.NatsURL != "" {
		ing, err = ingester.New(cfg.NatsURL, db, bat)
		if err != nil {
			stopBatcher()
			return fmt.Errorf("connect NATS: %w", err)
		}
		defer ing.Close()
		bat.SetPublisher(ing.Publish)
		if err := ing.Start(ctx); err != nil {
			stopBatcher()
			return fmt.Errorf("start ingester: %w", err)
		}
		slog.Info("NATS ingester started")
	} else {
		slog.Info("NATS_URL not set, analysis ingestion disabled")
	}

	bat.Start(batcherCtx)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := max(cfg.RateLimitBurst, 1)
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	srv := api.NewServer(db, bat, cfg.Port, limiter)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	slog.Info("callboard ready", "port", cfg.Port)

	err = g.Wait()

	slog.Info("shutting down")
	// Stop the batcher only after the HTTP server and the analysis consumer
	// have drained, so every audit entry they record is flushed.
	if ing != nil {
		ing.Stop()
	}
	stopBatcher()
	bat.Wait()
	slog.Info("callboard stopped")
	return err
}
