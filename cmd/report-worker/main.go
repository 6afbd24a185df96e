package main

import (
	"context"
	"errors"
	"os"
	"time"

	"homeexpenses/internal/amqp"
	"homeexpenses/internal/backend"
	"homeexpenses/internal/cli"
	"homeexpenses/internal/config"
	"homeexpenses/internal/log"
	gsheet "homeexpenses/internal/sheets/google"
	"homeexpenses/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := cli.LoadConfig()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return 1
	}
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting report-worker")

	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return 1
	}
	if cfg.AMQPURL == "" {
		logger.Error("Configuration validation failed", log.FieldError, "AMQP_URL is required for the report worker")
		return 1
	}
	if cfg.StoreBackend != config.BackendSQLite {
		logger.Error("Configuration validation failed", log.FieldError,
			"the report worker reads the shared sqlite store, STORE_BACKEND must be sqlite")
		return 1
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	// The worker only reads the collection, so it opens the store without a publisher.
	beCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		return 1
	}
	beCfg.AMQPURL = ""
	be, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).Create(ctx, beCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "path", cfg.SQLiteDBPath)
		return 1
	}
	defer be.Cleanup()

	sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.ReportSheetPrefix)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		return 1
	}
	logger.WithComponent(log.ComponentSheets).Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return 1
	}
	defer amqpClient.Close()

	reports := worker.NewReportWorker(be.Service, sheetsClient)

	// Imports made while the worker was down are picked up by one export at startup.
	logger.Info("Performing startup export", log.FieldOperation, log.OpStartup)
	if err := reports.Export(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldOperation, log.OpStartup, log.FieldError, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- amqpClient.ConsumeImportEvents(ctx, reports.HandleImportEvent)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			return 1
		}
	}

	cli.Shutdown(logger, 30*time.Second, func(shutdownCtx context.Context) error {
		select {
		case <-done:
			return nil
		case <-shutdownCtx.Done():
			return shutdownCtx.Err()
		}
	})
	return 0
}
