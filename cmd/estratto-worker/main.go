package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"estratto/internal/amqp"
	"estratto/internal/cli"
	"estratto/internal/ledger"
	"estratto/internal/ledger/google"
	"estratto/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting estratto-worker")

	// Initialize the Google Sheets mirror (optional)
	var mirror ledger.ActivityMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := google.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets mirror", "error", err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleActivitySheetName)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// Initialize AMQP client for consuming statement events
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(mirror)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	// Consume loop with retry: a dropped broker connection should not kill
	// the worker, events stay queued until it comes back.
	g.Go(func() error {
		for {
			err := amqpClient.ConsumeStatementEvents(gctx, mirrorWorker.HandleStatementEvent)
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Error("Event consumption failed, retrying",
				"error", err,
				"retry_in", cfg.MirrorRetryInterval.String())
			select {
			case <-gctx.Done():
				return nil
			case <-time.After(cfg.MirrorRetryInterval):
			}
		}
	})

	// Handle shutdown signals
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
