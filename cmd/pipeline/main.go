package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/quantfold/stocketl/internal/archive"
	"github.com/quantfold/stocketl/internal/config"
	"github.com/quantfold/stocketl/internal/extract"
	"github.com/quantfold/stocketl/internal/pipeline"
	"github.com/quantfold/stocketl/internal/version"
	"github.com/quantfold/stocketl/internal/warehouse"
)

func main() {
	configPath := flag.String("config", "configs/pipeline.local.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single pipeline pass and exit")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting pipeline",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"pipeline", cfg.Pipeline.Name,
		"symbols", len(cfg.Pipeline.Symbols),
		"load_mode", cfg.Load.Mode,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to the warehouse
	logger.Info("connecting to warehouse",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := warehouse.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to warehouse", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := warehouse.NewClient(pool, logger)
	if err := store.EnsureSchema(ctx, cfg.Load.Table, cfg.Load.StagingTable); err != nil {
		logger.Error("failed to ensure warehouse schema", "error", err)
		os.Exit(1)
	}

	logger.Info("warehouse connected")

	// Build extraction clients for the enabled sources
	var clients []extract.Client
	if cfg.Sources.AlphaVantage.Enabled {
		clients = append(clients, extract.NewAlphaVantage(cfg.Sources.AlphaVantage, logger))
	}
	if cfg.Sources.YahooFinance.Enabled {
		clients = append(clients, extract.NewYahooFinance(cfg.Sources.YahooFinance, logger))
	}

	var archiveStore archive.Store
	if cfg.Archive.Enabled {
		archiveStore = archive.NewFileStore(cfg.Archive.Root, logger)
	}

	p := pipeline.New(cfg, clients, store, archiveStore, logger)

	runOnce := func() {
		summary, err := p.Run(ctx)
		if err != nil {
			logger.Error("pipeline run failed", "error", err)
			return
		}
		logger.Info("pipeline run succeeded",
			"run_date", summary.RunDate,
			"merged_rows", summary.MergedRows,
			"rows_written", summary.Load.RowsWritten,
			"warnings", len(summary.Warnings),
		)
	}

	if *once || cfg.Pipeline.Schedule == "" {
		runOnce()
		return
	}

	// Scheduled mode
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Pipeline.Schedule, runOnce); err != nil {
		logger.Error("invalid schedule", "schedule", cfg.Pipeline.Schedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	logger.Info("pipeline scheduled", "schedule", cfg.Pipeline.Schedule)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")
	<-scheduler.Stop().Done()

	logger.Info("pipeline stopped")
}
