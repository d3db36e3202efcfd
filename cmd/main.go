// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/events-logistics/internal/config"
	"github.com/Shivanand-hulikatti/events-logistics/internal/database"
	"github.com/Shivanand-hulikatti/events-logistics/internal/handler"
	"github.com/Shivanand-hulikatti/events-logistics/internal/repository"
	"github.com/Shivanand-hulikatti/events-logistics/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "events: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	// ── 1. Open the database ─────────────────────────────────────────────
	stores, closeDB, err := openStores(ctx, cfg.DB, logger)
	if err != nil {
		return err
	}
	defer closeDB()
	logger.Info("database ready", "driver", cfg.DB.Driver)

	// ── 2. Wire up layers ────────────────────────────────────────────────
	eventSvc := service.NewEventService(stores.Events, stores.Participants, stores.Logistics)
	eventHandler := handler.NewEventHandler(eventSvc, logger)

	// ── 3. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(eventHandler, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openStores(ctx context.Context, cfg config.Database, logger *slog.Logger) (repository.Stores, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return repository.Stores{}, nil, fmt.Errorf("database: %w", err)
		}
		return repository.NewSQLiteStores(db), func() { _ = db.Close() }, nil
	default:
		pool, err := database.NewPool(ctx, cfg, logger)
		if err != nil {
			return repository.Stores{}, nil, fmt.Errorf("database: %w", err)
		}
		return repository.NewPostgresStores(pool), pool.Close, nil
	}
}
