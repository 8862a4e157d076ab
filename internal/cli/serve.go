package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/petty/internal/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve extraction over HTTP",
	Long: `Serve runs the HTTP API:
  POST /v1/extract         {"text": "..."}
  POST /v1/extract/batch   {"records": [{"id": "...", "text": "..."}]}
  GET  /health
  GET  /metrics            (with --metrics)

Example:
  petty serve --addr :8080 --metrics
  petty serve --backend spacy --server-url http://localhost:5000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Bool("metrics", false, "mount Prometheus metrics at /metrics")
	serveCmd.Flags().Int("workers", 4, "concurrent workers per batch request")
	serveCmd.Flags().Duration("record-timeout", 30*time.Second, "timeout for a single record (0 disables)")
	serveCmd.Flags().Bool("no-cache", false, "disable the annotation cache")
	serveCmd.Flags().String("backend", "", "annotation backend (prose, spacy, rules)")
	serveCmd.Flags().String("server-url", "", "spaCy annotation server URL")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"addr":           "server.addr",
		"workers":        "concurrency.workers",
		"record-timeout": "concurrency.record_timeout",
		"backend":        "annotator.backend",
		"server-url":     "annotator.server_url",
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
	withMetrics, _ := cmd.Flags().GetBool("metrics")

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, err := newServices(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	svc.checkBackend(ctx)

	opts := []api.Option{
		api.WithLogger(logger),
		api.WithBatch(cfg.Concurrency.Workers, cfg.Concurrency.RecordTimeout),
	}
	if withMetrics {
		opts = append(opts, api.WithMetrics(svc.metrics))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(svc.extractor, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("backend", svc.adapter.Backend().Name()),
			zap.Bool("metrics", withMetrics))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
