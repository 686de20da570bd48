/*
main.go - Application entry point

PURPOSE:
  Starts the renewal engine HTTP server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env, then config (file and RENEWAL_* variables)
  2. Build the logger
  3. Load the tariff (defaults unless tariff_file is set)
  4. Open the SQLite receipt ledger
  5. Wire workflow, handler and router
  6. Serve until SIGINT/SIGTERM

COMMAND-LINE FLAGS:
  -config  Optional YAML config file
  -port    Overrides server.port
  -db      Overrides database.path (":memory:" for in-memory)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests (server.shutdown_timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/renewals.db"
  RENEWAL_SERVER_PORT=3000 RENEWAL_LOG_FORMAT=console ./server

SEE ALSO:
  - config/: settings and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Receipt ledger
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/renewal-engine/api"
	"github.com/warp/renewal-engine/config"
	"github.com/warp/renewal-engine/factory"
	"github.com/warp/renewal-engine/logging"
	"github.com/warp/renewal-engine/metrics"
	"github.com/warp/renewal-engine/renewal"
	"github.com/warp/renewal-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	configPath := flag.String("config", "", "YAML config file (optional)")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logging.SetDefault(logger)

	tariff, rates, err := factory.LoadTariffFile(cfg.TariffFile)
	if err != nil {
		return err
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	var rec *metrics.Recorder
	if cfg.Metrics.Enabled {
		rec = metrics.New(cfg.Metrics.Runtime)
	}

	wf := renewal.New(tariff, rates, store,
		renewal.WithLogger(logger.Named("renewal")),
		renewal.WithMetrics(rec),
	)
	handler := api.NewHandler(wf, store, logger.Named("api"))
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        rec,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			logging.String("addr", server.Addr),
			logging.String("database", cfg.Database.Path),
			logging.Bool("metrics", rec != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		logger.Info("shutting down", logging.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
