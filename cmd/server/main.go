package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/kcportal/internal/catalog"
	"github.com/JonMunkholm/kcportal/internal/config"
	"github.com/JonMunkholm/kcportal/internal/core"
	"github.com/JonMunkholm/kcportal/internal/logging"
	"github.com/JonMunkholm/kcportal/internal/review"
	"github.com/JonMunkholm/kcportal/internal/web"
	"github.com/JonMunkholm/kcportal/internal/workflow"
)

func main() {
	// Load .env file if it exists. Variables already set in the environment win.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, closer := logging.Setup(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer closer.Close()

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"page_size", cfg.Catalog.PageSize,
		"max_drafts", cfg.Session.MaxDrafts,
		"review_topic", cfg.Review.Topic,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	if err := run(cfg, logger); err != nil {
		slog.Error("server stopped", "error", err)
		closer.Close()
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	queue, err := loadQueue(cfg.Review)
	if err != nil {
		return err
	}
	slog.Info("data loaded",
		"datasets", cat.Len(),
		"review_entries", queue.Stats().Total,
	)

	// Submissions travel over an in-process pub/sub so the wizard never
	// writes to the review queue directly.
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
	defer pubSub.Close()

	consumer := review.NewConsumer(pubSub, cfg.Review.Topic, queue, logger)
	if err := consumer.Consume(ctx); err != nil {
		return err
	}

	service, err := core.NewService(cat, queue, review.NewPublisher(pubSub, cfg.Review.Topic), core.Options{
		Session: workflow.SessionConfig{
			Limits: workflow.Limits{
				MaxFileSize: cfg.Upload.MaxFileSize,
				Extensions:  cfg.Upload.Extensions,
			},
			Simulation: workflow.SimulationConfig{
				Step:     cfg.Upload.ProgressStep,
				Interval: cfg.Upload.ProgressInterval,
			},
		},
		SessionTTL:      cfg.Session.TTL,
		CleanupInterval: cfg.Session.CleanupInterval,
		MaxDrafts:       cfg.Session.MaxDrafts,
		DraftWait:       cfg.Session.DraftWait,
		AuditSize:       cfg.Audit.Size,
		Reviewer:        cfg.Review.Reviewer,
	})
	if err != nil {
		return err
	}
	defer service.Close()

	server := web.NewServer(service, *cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let running uploads finish so their drafts are not cut mid-run.
		if h := service.Health(); h.Drafts > 0 {
			slog.Info("waiting for uploads to complete", "drafts", h.Drafts)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			}
		}
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	var (
		records []catalog.DatasetRecord
		err     error
	)
	if cfg.SeedFile != "" {
		records, err = catalog.LoadSeedFile(cfg.SeedFile)
	} else {
		records, err = catalog.DefaultSeed()
	}
	if err != nil {
		return nil, err
	}
	return catalog.New(records, cfg.PageSize)
}

func loadQueue(cfg config.ReviewConfig) (*review.Queue, error) {
	if cfg.SeedFile != "" {
		return review.LoadSeedFile(cfg.SeedFile)
	}
	return review.DefaultQueue()
}
