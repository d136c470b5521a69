package main

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"consultas/internal/amqp"
	"consultas/internal/cli"
	applog "consultas/internal/log"
	"consultas/internal/sheets"
	gsheet "consultas/internal/sheets/google"
	mem "consultas/internal/sheets/memory"
	"consultas/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, logger, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	logger = logger.WithComponent(applog.ComponentWorker)
	logger.Info("Starting consultas-worker")

	if !cfg.AMQPEnabled() {
		cli.Fatal(logger, "Worker needs a broker", errors.New("AMQP_URL is not set"))
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	repo, err := cli.InitSQLite(ctx, logger, cfg.SQLiteDBPath)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize SQLite repository", err)
	}
	defer repo.Close()

	var mirror sheets.AppointmentMirror
	if cfg.MirrorEnabled() {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		mirror = mem.New()
		logger.Info("GOOGLE_SPREADSHEET_ID not set, mirroring in memory")
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer consumer.Close()

	syncWorker := worker.NewSyncWorker(repo, mirror)

	// Rows saved while the worker was down are caught up before consuming.
	if err := syncWorker.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := consumer.Consume(gctx, syncWorker.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		cli.Fatal(logger, "Message consumption failed", err)
	}
	logger.Info("Worker shutdown complete")
}
