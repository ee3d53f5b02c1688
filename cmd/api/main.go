package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/api"
	"github.com/dvloznov/finance-dashboard/internal/api/handlers"
	"github.com/dvloznov/finance-dashboard/internal/categorize"
	"github.com/dvloznov/finance-dashboard/internal/config"
	"github.com/dvloznov/finance-dashboard/internal/dashboard"
	"github.com/dvloznov/finance-dashboard/internal/export"
	"github.com/dvloznov/finance-dashboard/internal/infra"
	"github.com/dvloznov/finance-dashboard/internal/jobs/inmemory"
	"github.com/dvloznov/finance-dashboard/internal/logger"
	"github.com/dvloznov/finance-dashboard/internal/plaid"
)

func main() {
	// Parse command-line flags; they override the loaded configuration.
	var (
		port   = flag.Int("port", 0, "HTTP server port (overrides server.port)")
		bucket = flag.String("bucket", "", "GCS bucket for CSV exports (overrides exports.bucket)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *bucket != "" {
		cfg.Exports.Bucket = *bucket
	}

	// Initialize logger
	log := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone")
	}
	clock := func() time.Time { return time.Now().In(loc) }

	ctx := context.Background()

	// Initialize repositories
	repo, err := infra.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open store")
	}
	defer repo.Close()

	// Optional integrations
	var exporter dashboard.Exporter
	if cfg.Exports.Bucket != "" {
		objects, err := export.NewGCSStore(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer objects.Close()
		exporter = export.NewExporter(repo, objects, cfg.Exports.Bucket, log)
	} else {
		log.Warn().Msg("No exports bucket configured - CSV exports will fail")
	}

	var suggester categorize.Suggester
	if gen, err := categorize.NewGeminiGenerator(ctx, cfg.Categorize.Model); err != nil {
		log.Warn().Err(err).Msg("Category suggestions disabled")
	} else {
		suggester = categorize.NewModelSuggester(gen, log)
	}

	var linker handlers.Linker
	if cfg.Plaid.ClientID != "" {
		client, err := plaid.NewClient(plaid.Config{
			ClientID:    cfg.Plaid.ClientID,
			Secret:      cfg.Plaid.Secret,
			Environment: cfg.Plaid.Environment,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create plaid client")
		}
		linker = dashboard.NewLinkService(client, repo, dashboard.LinkOptions{
			CountryCodes:  cfg.Plaid.CountryCodes,
			FallbackLogos: cfg.Plaid.FallbackLogos,
		}, log)
	} else {
		log.Warn().Msg("No plaid client_id configured - account linking is disabled")
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(inmemory.Options{
		BufferSize: cfg.Jobs.Buffer,
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
	}, jobStore, log)

	runner := dashboard.NewJobRunner(repo, exporter, suggester, cfg.Categories, clock, log)

	// Start workers in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, runner.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	// Initialize services and handlers
	txService := dashboard.NewTransactionService(repo, cfg.Categories, log)
	acctService := dashboard.NewAccountService(repo, log)

	router := api.NewRouter(api.Handlers{
		Transactions: handlers.NewTransactionsHandler(txService, clock, log),
		Accounts:     handlers.NewAccountsHandler(acctService, linker, log),
		Jobs:         handlers.NewJobsHandler(jobQueue, jobStore, log),
	})

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      api.Wrap(router, cfg.Server.AllowedOrigin, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Str("driver", cfg.Storage.Driver).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
