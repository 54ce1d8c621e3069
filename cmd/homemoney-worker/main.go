package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"homemoney/internal/amqp"
	"homemoney/internal/cli"
	"homemoney/internal/log"
	"homemoney/internal/sheets"
	gsheet "homemoney/internal/sheets/google"
	mem "homemoney/internal/sheets/memory"
	"homemoney/internal/worker"
)

func main() {
	cfg, logger := cli.LoadConfig(log.ComponentWorker)
	logger.Info("Starting homemoney-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker", log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	result := cli.OpenBackend(ctx, cfg, logger)
	defer result.Cleanup()

	var (
		writer sheets.ExpenseWriter
		lister sheets.ExpenseLister
	)
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
			os.Exit(1)
		}
		if err := client.EnsureHeader(ctx); err != nil {
			logger.Warn("Failed to write sheet header", log.FieldError, err.Error())
		}
		writer, lister = client, client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		store := mem.New()
		writer, lister = store, store
		logger.Info("Google Sheets disabled, mirroring in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(result.Repository, writer, lister, logger)

	// Catch up on anything created while the worker was down.
	if n, err := syncWorker.Reconcile(ctx); err != nil {
		logger.Error("Startup reconcile failed", log.FieldError, err.Error())
	} else {
		logger.Info("Startup reconcile complete", log.FieldCount, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeWithRetry(gctx, syncWorker.HandleExpenseCreated)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
