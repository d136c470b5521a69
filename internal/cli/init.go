// Package cli holds the startup steps shared by cmd/consultas and
// cmd/consultas-worker.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"consultas/internal/config"
	applog "consultas/internal/log"
	"consultas/internal/storage"
)

// SetupLogger installs a text logger at level as the slog default.
func SetupLogger(level slog.Level) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     level,
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Ignoring unreadable .env file", "error", err)
	}
}

// LoadAndValidateConfig loads configuration, validates it and applies the
// process-wide settings (log level, time zone).
func LoadAndValidateConfig() (*config.Config, *applog.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, SetupLogger(slog.LevelInfo), err
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := SetupLogger(level)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, logger, fmt.Errorf("load timezone: %w", err)
	}
	time.Local = loc

	if cfg.SessionSecret == config.DevSessionSecret {
		logger.Warn("SESSION_SECRET not set, using the development secret")
	}
	return cfg, logger, nil
}

// InitSQLite opens the appointment store, applying migrations.
func InitSQLite(ctx context.Context, logger *applog.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository at %s: %w", dbPath, err)
	}
	logger.InfoContext(ctx, "SQLite repository ready", "path", dbPath)
	return repo, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
	}()
	return ctx, stop
}

// Fatal logs err and exits with status 1.
func Fatal(logger *applog.Logger, msg string, err error) {
	logger.Error(msg, applog.FieldError, err)
	os.Exit(1)
}
