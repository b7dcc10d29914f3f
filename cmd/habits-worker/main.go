package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"habits/internal/amqp"
	"habits/internal/config"
	"habits/internal/journal"
	"habits/internal/storage"
	"habits/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting habits-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker reads unjournaled completions straight from SQLite.
	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	if cfg.JournalSpreadsheetID == "" {
		logger.Error("Google Sheets journal disabled - no JOURNAL_SPREADSHEET_ID provided, nothing to do")
		os.Exit(1)
	}

	writer, err := journal.NewGoogleSheets(context.Background(), cfg.JournalSpreadsheetID, cfg.JournalSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets journal", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets journal initialized",
		"spreadsheet_id", cfg.JournalSpreadsheetID,
		"sheet", cfg.JournalSheetName)

	journalWorker := worker.NewJournalWorker(repo, writer, cfg.SyncBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Recover anything missed while the worker was down.
	logger.Info("Performing startup journal check...")
	if err := journalWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup journal check failed", "error", err)
		// Keep going, the periodic scan retries.
	}

	g, gctx := errgroup.WithContext(ctx)

	// AMQP consumer. The client is optional: without a broker the worker
	// degrades to pure periodic scanning.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, relying on periodic scan only", "error", err)
		} else {
			defer amqpClient.Close()
			g.Go(func() error {
				err := amqpClient.ConsumeCompletionSync(gctx, func(msg *amqp.CompletionSyncMessage) error {
					return journalWorker.HandleSyncMessage(gctx, msg)
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, relying on periodic scan only")
	}

	// Periodic pending scan, the backup path for lost messages.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := journalWorker.ProcessPending(gctx); err != nil {
					logger.Error("Periodic journal scan failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
