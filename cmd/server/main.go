/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll and leave engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, .env, config file, PAYROLL_* variables)
  2. Apply command-line overrides
  3. Initialize SQLite store and rate tables
  4. Wire attendance, leave and payroll services
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides server.port)
  -db      SQLite database path (overrides database.path)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/payroll.db"

  # Custom rate tables and a pretty console log
  PAYROLL_PAYROLL_RATE_TABLES_FILE=rates.json PAYROLL_LOG_PRETTY=true ./server

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
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

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/contribution"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/logger"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	log := logger.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	// Initialize store
	store, err := sqlite.New(cfg.Database.Path, sqlite.WithLogger(log))
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	handler, err := buildHandler(cfg, store, log)
	if err != nil {
		return err
	}
	router := api.NewRouter(handler, log, cfg.Server.AllowedOrigins)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("db", cfg.Database.Path).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// buildHandler wires the domain services from configuration.
func buildHandler(cfg *config.Config, store *sqlite.Store, log zerolog.Logger) (*api.Handler, error) {
	pc := cfg.Payroll

	rates, err := factory.NewRatesFactory().LoadRatesFile(pc.RateTablesFile)
	if err != nil {
		return nil, err
	}
	fundRate := decimal.NewFromFloat(pc.CommunityFundRate)
	singleFund, err := contribution.ParseStrategy(pc.SingleCommunityFund, fundRate, rates.CommunityFund)
	if err != nil {
		return nil, fmt.Errorf("payroll.single_community_fund: %w", err)
	}
	bulkFund, err := contribution.ParseStrategy(pc.BulkCommunityFund, fundRate, rates.CommunityFund)
	if err != nil {
		return nil, fmt.Errorf("payroll.bulk_community_fund: %w", err)
	}
	restDays, err := generic.ParseWeekdays(pc.RestDays)
	if err != nil {
		return nil, fmt.Errorf("payroll.rest_days: %w", err)
	}

	agg := attendance.NewAggregator(store, restDays, decimal.NewFromFloat(pc.StandardShiftHours))
	svc := api.Services{
		Leave: leave.NewService(store, log,
			leave.WithRestDays(restDays),
			leave.WithRestoreCap(pc.RestoreCapAtLimit),
		),
		Payroll: payroll.NewService(store, agg, log,
			payroll.WithCalculator(contribution.NewCalculator(rates.Tables)),
			payroll.WithLevy(rates.Levy),
			payroll.WithCommunityFunds(singleFund, bulkFund),
			payroll.WithOTCap(decimal.NewFromFloat(pc.OTCapHours)),
			payroll.WithFallbackWorkingDays(pc.FallbackWorkingDays),
			payroll.WithBulkConcurrency(pc.BulkConcurrency),
		),
		Recorder:   attendance.NewRecorder(store, agg),
		Aggregator: agg,
		Rates:      rates,
	}
	log.Info().Str("single_fund", singleFund.Name()).Str("bulk_fund", bulkFund.Name()).
		Int("rest_days", len(restDays)).Msg("payroll services configured")
	return api.NewHandler(store, svc, log), nil
}
