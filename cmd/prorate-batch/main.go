package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gnadrag/invoice-prorata/internal/async"
	"github.com/gnadrag/invoice-prorata/internal/common"
	"github.com/gnadrag/invoice-prorata/internal/export"
	"github.com/gnadrag/invoice-prorata/internal/extract"
	"github.com/gnadrag/invoice-prorata/internal/ingest"
	"github.com/gnadrag/invoice-prorata/internal/pipeline"
	"github.com/gnadrag/invoice-prorata/internal/prorate"
	repo "github.com/gnadrag/invoice-prorata/internal/repository"
	"github.com/gnadrag/invoice-prorata/internal/validate"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		dir     = flag.String("dir", "", "directory of extraction JSON documents (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite ledger instead of DB_URL")
		workers = flag.Int("workers", 0, "worker pool size (defaults to MAX_WORKERS)")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	// If output file not specified, use parent directory with default filename
	if *out == "" {
		parentDir := filepath.Dir(*dir)
		*out = filepath.Join(parentDir, "expanded_monthly_rows.xlsx")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Load configuration
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Batch.MaxWorkers = *workers
	}

	// Open ledger store
	dbCfg := repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}
	if *inmem {
		dbCfg.DSN = ":memory:"
	}
	store, err := repo.Open(ctx, dbCfg, logger)
	if err != nil {
		logger.Error("failed to open ledger store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ledger := repo.NewLedgerRepository(store, logger)
	if err := ledger.Migrate(ctx); err != nil {
		logger.Error("failed to migrate ledger", "error", err)
		os.Exit(1)
	}

	// Wire the pipeline
	extractor := extract.NewExtractor(extract.Config{
		DayFirst:               cfg.Dates.DayFirst,
		FallbackToInvoiceMonth: cfg.Dates.FallbackToInvoiceMonth,
		MaxYearsFromInvoice:    cfg.Dates.MaxYearsFromInvoice,
	}, logger)
	validator := validate.NewValidator(validate.Config{
		VATTolerance:  cfg.Validation.VATTolerance,
		MaxPeriodDays: cfg.Validation.MaxPeriodDays,
	}, logger)
	engine := prorate.NewEngine(prorate.Config{
		Basis:     cfg.Prorate.Basis,
		Weighting: cfg.Prorate.Weighting,
	}, logger)
	processor := pipeline.NewProcessor(logger, extractor, validator, engine)
	runner := async.NewBatchRunner(processor, logger, async.WithWorkers(cfg.Batch.MaxWorkers))

	// Read extraction documents
	decoder := ingest.NewDecoder(logger)
	logger.Info("reading extraction documents", "dir", *dir)
	items, fileResults, stats, err := decoder.ReadDirectory(*dir)
	if err != nil {
		logger.Error("failed to read directory", "error", err)
		os.Exit(1)
	}
	for _, fr := range fileResults {
		if fr.Err != "" {
			logger.Warn("document rejected", "path", fr.Path, "error", fr.Err)
		}
	}
	logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed)

	// Process the batch
	start := time.Now()
	batch, err := runner.Run(ctx, items)
	if err != nil {
		logger.Error("batch aborted", "error", err)
		os.Exit(1)
	}

	// Persist outcomes and rows
	if err := ledger.SaveResults(ctx, batch.Results); err != nil {
		logger.Error("failed to persist batch", "error", err)
		os.Exit(1)
	}

	// Export to XLSX
	logger.Info("exporting to XLSX", "output", *out)
	exportService := export.NewService(logger)
	xlsxBytes, err := exportService.ExportMonthlyRowsXLSX(batch.Rows)
	if err != nil {
		logger.Error("failed to export monthly rows", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	// Log summary
	logger.Info("batch processing complete",
		"items", len(items),
		"succeeded", batch.Succeeded,
		"partial", batch.Partial,
		"failed", batch.Failed,
		"rows", len(batch.Rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Documents decoded: %d\n", len(items))
	fmt.Printf("- Succeeded: %d\n", batch.Succeeded)
	fmt.Printf("- Partial: %d\n", batch.Partial)
	fmt.Printf("- Failed: %d\n", batch.Failed)
	fmt.Printf("- Monthly rows: %d\n", len(batch.Rows))
	fmt.Printf("- Output: %s\n", *out)
}
