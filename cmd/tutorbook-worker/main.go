package main

import (
	"context"
	"os"
	"time"

	"tutorbook/internal/amqp"
	"tutorbook/internal/backend"
	"tutorbook/internal/cli"
	"tutorbook/internal/config"
	applog "tutorbook/internal/log"
	"tutorbook/internal/worker"
)

// The worker mirrors every appended record into the configured spreadsheet.
func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	cli.MustValidate(logger, cfg.ValidateMirror)

	logger.Info("Starting tutorbook-worker", "queue", cfg.AMQPQueue, "spreadsheet_id", cfg.GoogleSpreadsheetID)

	sheetsCfg := backend.Config{
		Type:                     backend.SheetsBackend,
		GoogleSpreadsheetID:      cfg.GoogleSpreadsheetID,
		GooglePaymentsSheet:      cfg.GooglePaymentsSheet,
		GoogleExpensesSheet:      cfg.GoogleExpensesSheet,
		GoogleServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: cfg.GoogleServiceAccountFile,
	}
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	sheets, err := backend.NewSheetsClient(startCtx, sheetsCfg, logger.WithComponent(applog.ComponentSheets).Logger)
	cancelStart()
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(applog.ComponentAMQP).Logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(context.Background(), logger, 30*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", applog.FieldError, err)
		}
	})

	mirror := worker.NewMirrorWorker(sheets, logger.Logger)
	go func() {
		if err := mirror.Run(ctx, amqpClient); err != nil {
			logger.Error("Message consumption failed", applog.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(done)
}
