package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/petty/internal/render"
	"github.com/ppiankov/petty/internal/source"
	"github.com/ppiankov/petty/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Extract every record of a file in parallel",
	Long: `Batch extracts many records concurrently:
- Read records from a CSV, JSONL or plain text file (one record per line)
- Extract them in parallel with a configurable worker count
- Report records without defendants or with errors, without stopping the run
- Write all cases as JSON, JSONL or CSV

CSV input takes the record text from --column. When the file has a title
column, only rows whose title starts with --title-prefix are read.

Example:
  petty batch records.csv
  petty batch records.csv --workers 8 --format csv --output cases.csv
  petty batch records.jsonl --backend spacy --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("workers", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().Duration("record-timeout", 30*time.Second, "timeout for a single record (0 disables)")
	batchCmd.Flags().Duration("timeout", 30*time.Minute, "total timeout for the batch")
	batchCmd.Flags().String("format", "json", "output format (json, jsonl, csv)")
	batchCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	batchCmd.Flags().String("column", "description", "CSV column holding the record text")
	batchCmd.Flags().String("title-prefix", "Summary conviction", "only read CSV rows whose title starts with this")
	batchCmd.Flags().Bool("no-cache", false, "disable the annotation cache")
	batchCmd.Flags().String("backend", "", "annotation backend (prose, spacy, rules)")
	batchCmd.Flags().String("server-url", "", "spaCy annotation server URL")
	batchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address while running")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	if err := bindFlags(cmd, map[string]string{
		"workers":        "concurrency.workers",
		"record-timeout": "concurrency.record_timeout",
		"format":         "output.format",
		"column":         "input.column",
		"title-prefix":   "input.title_prefix",
		"backend":        "annotator.backend",
		"server-url":     "annotator.server_url",
		"metrics-addr":   "server.metrics_addr",
	}); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	batchTimeout, _ := cmd.Flags().GetDuration("timeout")
	outputPath, _ := cmd.Flags().GetString("output")

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Petty Batch Extraction\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Run ID:       %s\n", runID)
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Backend:      %s\n", cfg.Annotator.Backend)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Format:       %s\n", cfg.Output.Format)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	svc, err := newServices(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, batchTimeout)
		defer cancel()
	}
	svc.checkBackend(ctx)

	registry := source.NewRegistry(source.Options{
		Column:      cfg.Input.Column,
		IDColumn:    cfg.Input.IDColumn,
		TitleColumn: cfg.Input.TitleColumn,
		TitlePrefix: cfg.Input.TitlePrefix,
	})

	processor := worker.NewBatchProcessor(svc.extractor, cfg.Concurrency.Workers, cfg.Concurrency.RecordTimeout)

	fmt.Fprintf(os.Stderr, "⚙️  Extracting records with %d workers...\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "\n")

	start := time.Now()
	results, err := runWithMetrics(ctx, cfg.Server.MetricsAddr, svc, func(ctx context.Context) ([]*worker.RecordResult, error) {
		return processor.ProcessFile(ctx, registry, file)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Processed %d records\n", len(results))

	items := make([]render.Item, len(results))
	for i, res := range results {
		items[i] = render.NewItem(res.Record.ID, res.Case, res.Err)
		if items[i].Error != "" {
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", res.Record.ID, items[i].Error)
			logger.Warn("record failed",
				zap.String("id", res.Record.ID),
				zap.String("error", items[i].Error),
				zap.String("input", res.Record.Text))
		}
	}

	env := render.NewEnvelope(runID, items)
	if err := writeOutput(cmd.OutOrStdout(), outputPath, cfg.Output.Format, env); err != nil {
		return err
	}

	sum := env.Summary
	logger.Info("batch complete",
		zap.Int("records", sum.Records),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("no_defendants", sum.NoDefendants),
		zap.Int("errors", sum.Errors),
		zap.Int("defendants", sum.Defendants),
		zap.Duration("elapsed", time.Since(start)))

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:          %d records\n", sum.Records)
	fmt.Fprintf(os.Stderr, "  Parsed:         %d\n", sum.Succeeded)
	fmt.Fprintf(os.Stderr, "  No defendants:  %d\n", sum.NoDefendants)
	fmt.Fprintf(os.Stderr, "  Errors:         %d\n", sum.Errors)
	fmt.Fprintf(os.Stderr, "  Defendants:     %d\n", sum.Defendants)
	if outputPath != "" {
		fmt.Fprintf(os.Stderr, "  Output:         %s\n", outputPath)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("batch timed out after %v", batchTimeout)
	}
	return nil
}

// runWithMetrics runs work while serving metrics on addr, then stops the
// listener. An empty addr runs work alone.
func runWithMetrics(ctx context.Context, addr string, svc *services, work func(context.Context) ([]*worker.RecordResult, error)) ([]*worker.RecordResult, error) {
	if addr == "" {
		return work(ctx)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           svc.metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var results []*worker.RecordResult
	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(done)
		var err error
		results, err = work(gctx)
		return err
	})
	g.Go(func() error {
		svc.logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics listener: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-done:
		case <-gctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeOutput renders env to path, or to stdout when path is empty
func writeOutput(stdout io.Writer, path, format string, env render.Envelope) (err error) {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}()
		w = f
	}

	if err := render.Write(w, format, env); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
