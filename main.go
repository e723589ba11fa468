package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/database"
	"github.com/tradeunity/salesintel/pkg/logging"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/repositories"
	"github.com/tradeunity/salesintel/pkg/services"
	"github.com/tradeunity/salesintel/pkg/workbook"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Time("reference_date", cfg.ReferenceDate),
		zap.String("input_dir", cfg.Inputs.Dir),
		zap.String("output_dir", cfg.Output.Dir),
		zap.Strings("reports", cfg.Reports))

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Pipeline failed", zap.String("error", logging.SanitizeError(err)))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run wires the sinks and executes the pipeline once. The run is recorded
// in the Postgres registry when that sink is enabled.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) (err error) {
	registry := &models.ReportRun{
		ID:            uuid.New(),
		Version:       cfg.Version,
		ReferenceDate: cfg.ReferenceDate,
		Reports:       cfg.Reports,
		Status:        models.RunStatusRunning,
		StartedAt:     time.Now().UTC(),
	}

	sinks, runs, err := openSinks(ctx, cfg, logger)
	defer func() {
		for _, sink := range sinks {
			if cerr := sink.Close(); cerr != nil {
				logger.Warn("Failed to close sink", zap.String("sink", sink.Name()), zap.Error(cerr))
			}
		}
	}()
	if err != nil {
		return err
	}

	if runs != nil {
		if err := runs.Create(ctx, registry); err != nil {
			return fmt.Errorf("failed to register run: %w", err)
		}
		defer func() {
			finishRun(context.WithoutCancel(ctx), runs, registry, err, logger)
		}()
	}

	inputs := repositories.NewInputRepository(logger)
	pipeline := services.NewPipeline(logger, services.DefaultStages(cfg, inputs, sinks, logger)...)

	state := services.NewRun(cfg.ReferenceDate)
	state.Registry = registry
	if err := pipeline.Execute(ctx, state); err != nil {
		return err
	}

	for _, skipped := range state.Skipped {
		logger.Warn("Report skipped for missing optional input", zap.String("report", skipped))
	}
	logger.Info("Pipeline complete",
		zap.String("run_id", registry.ID.String()),
		zap.Int("workbooks", len(state.Workbooks)),
		zap.Int("sales_lines", registry.SalesLines),
		zap.Int("unmatched_skus", registry.UnmatchedSKUs))
	return nil
}

// openSinks builds the configured sinks in emit order. The CSV sink is
// always present so CSV-only workbooks are written. The returned
// repository is nil unless the Postgres sink is enabled.
func openSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]workbook.Sink, repositories.ReportRunRepository, error) {
	var sinks []workbook.Sink
	if cfg.Sinks.XLSX {
		sinks = append(sinks, workbook.NewXLSXSink(cfg.Output.Dir, logger))
	}
	sinks = append(sinks, workbook.NewCSVSink(cfg.Output.Dir, cfg.Sinks.CSV, logger))

	if cfg.Sinks.SQLite.Enabled {
		db, err := database.OpenSQLite(ctx, cfg.Sinks.SQLite.Path)
		if err != nil {
			return sinks, nil, err
		}
		sinks = append(sinks, workbook.NewSQLiteSink(db, logger))
		logger.Info("SQLite sink enabled", zap.String("path", cfg.Sinks.SQLite.Path))
	}

	if !cfg.Sinks.Postgres.Enabled {
		return sinks, nil, nil
	}

	pg := cfg.Sinks.Postgres
	connStr := pg.Database.ConnectionString()
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: pg.Database.MaxConnections,
	})
	if err != nil {
		return sinks, nil, fmt.Errorf("failed to connect to %s: %w", logging.SanitizeConnectionString(connStr), err)
	}
	if err := database.MigrateURL(connStr, pg.MigrationsPath, logger); err != nil {
		db.Close()
		return sinks, nil, err
	}
	sinks = append(sinks, workbook.NewPostgresSink(repositories.NewSheetRowRepository(db), db.Close, logger))
	logger.Info("Postgres sink enabled",
		zap.String("host", pg.Database.Host),
		zap.String("database", pg.Database.Database))

	return sinks, repositories.NewReportRunRepository(db), nil
}

// finishRun stores the outcome of the run in the registry.
func finishRun(ctx context.Context, runs repositories.ReportRunRepository, registry *models.ReportRun, runErr error, logger *zap.Logger) {
	registry.Status = models.RunStatusSucceeded
	if runErr != nil {
		registry.Status = models.RunStatusFailed
		msg := logging.SanitizeError(runErr)
		if errors.Is(runErr, context.Canceled) {
			msg = "canceled"
		}
		registry.Error = &msg
	}
	if err := runs.Finish(ctx, registry); err != nil {
		logger.Error("Failed to finish run", zap.String("run_id", registry.ID.String()), zap.Error(err))
	}
}
