package main

import (
	"context"
	"errors"
	"os"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/cli"
	applog "cashflow/internal/log"
	"cashflow/internal/sheets"
	gsheet "cashflow/internal/sheets/google"
	"cashflow/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		applog.New(applog.DefaultConfig()).Warn("Failed to load .env file", applog.FieldError, err.Error())
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	logger.Info("Starting export-worker")

	if !cfg.ExportsEnabled() {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	ctx := context.Background()
	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", applog.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer res.Cleanup()

	var sink sheets.RowAppender
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			Sheet:              cfg.GoogleExportSheet,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		sink = client
		logger.Info("Google Sheets sink enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleExportSheet)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()
	amqpClient.SetPrefetch(cfg.ExportPrefetch)

	w := worker.NewExportWorker(res.Store, cfg.ExportDir, sink, logger)

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	logger.Info("Consuming export jobs", "queue", cfg.AMQPQueue, "export_dir", cfg.ExportDir, "prefetch", cfg.ExportPrefetch)
	if err := amqpClient.ConsumeExportJobs(runCtx, w.HandleJob); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	<-done
	logger.Info("Worker shutdown complete")
}
