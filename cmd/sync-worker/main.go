package main

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cfg, logger, err := cli.Bootstrap(applog.ComponentWorker)
	if err != nil {
		cli.Fatal(nil, "Configuration validation failed", err)
	}
	if cfg.AMQPURL == "" {
		cli.Fatal(logger, "Sync worker needs a broker", errors.New("AMQP_URL is not set"))
	}
	if !cfg.SheetsEnabled() {
		cli.Fatal(logger, "Sync worker needs a spreadsheet",
			errors.New("set GOOGLE_SPREADSHEET_ID and service account credentials"))
	}
	logger.Info("Starting sync-worker")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	// The worker only reads the store; publishing stays with the writers.
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	bcfg.AMQPURL = ""
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		cli.Fatal(logger, "Failed to open store", err)
	}
	defer res.Cleanup()

	exporter, err := google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.SyncBatchSize)
	if err != nil {
		cli.Fatal(logger, "Failed to connect to AMQP", err)
	}
	defer client.Close()

	syncer := worker.NewSyncWorker(res.Store, exporter)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeTransactionCreated(gctx, syncer.HandleTransactionCreated)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Sync worker stopped with error", "error", err)
		return
	}
	logger.Info("Sync-worker shutdown complete")
}
