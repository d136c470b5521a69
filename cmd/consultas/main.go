package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"consultas/internal/amqp"
	"consultas/internal/auth"
	"consultas/internal/cache"
	"consultas/internal/cli"
	"consultas/internal/core"
	apphttp "consultas/internal/http"
	applog "consultas/internal/log"
	"consultas/internal/metrics"
	"consultas/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, logger, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	repo, err := cli.InitSQLite(ctx, logger, cfg.SQLiteDBPath)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize SQLite repository", err)
	}
	defer repo.Close()

	m := metrics.New()
	opts := []services.Option{
		services.WithMetrics(m),
		services.WithSummaryCache(cache.NewLRU[int, core.YearSummary](8, 5*time.Minute)),
	}

	// Events are optional; the screens work without a broker.
	if cfg.AMQPEnabled() {
		publisher, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, appointment events disabled",
				applog.FieldError, err)
		} else {
			defer publisher.Close()
			opts = append(opts, services.WithPublisher(publisher))
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	appointments := services.NewAppointmentService(repo, opts...)

	if !auth.IsBcryptHash(cfg.Password) {
		logger.Warn("APP_PASSWORD is stored in plain text, consider a bcrypt hash")
	}

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		RequestTimeout: cfg.RequestTimeout,
		LoginPerMinute: cfg.LoginPerMin,
		ClinicName:     cfg.ClinicName,
	}, apphttp.Deps{
		Appointments: appointments,
		Store:        repo,
		Gate:         auth.NewGate(cfg.Username, cfg.Password),
		Sessions:     auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookies),
		Metrics:      m,
		Logger:       logger,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to build HTTP server", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting consultas server", "port", cfg.Port, "clinic", cfg.ClinicName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		cli.Fatal(logger, "Server error", err)
	}
	logger.Info("Server stopped gracefully")
}
