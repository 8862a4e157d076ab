// Package api serves extraction over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/petty/internal/logging"
	"github.com/ppiankov/petty/internal/metrics"
	"github.com/ppiankov/petty/internal/worker"
	"go.uber.org/zap"
)

const (
	defaultMaxBodyBytes = 4 << 20
	maxBatchRecords     = 1000
)

// Server is the HTTP API for petty
type Server struct {
	router        chi.Router
	extractor     worker.Extractor
	batch         *worker.BatchProcessor
	validate      *validator.Validate
	logger        *zap.Logger
	metrics       *metrics.Metrics
	workers       int
	recordTimeout time.Duration
	maxBodyBytes  int64
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request and error logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNop(l) }
}

// WithMetrics mounts GET /metrics for m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithBatch sets the worker count and per-record timeout of batch requests
func WithBatch(workers int, recordTimeout time.Duration) Option {
	return func(s *Server) {
		s.workers = workers
		s.recordTimeout = recordTimeout
	}
}

// WithMaxBodyBytes limits request bodies
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// NewServer creates the server and its routes
func NewServer(extractor worker.Extractor, opts ...Option) *Server {
	s := &Server{
		extractor:    extractor,
		validate:     validator.New(),
		logger:       zap.NewNop(),
		workers:      4,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.batch = worker.NewBatchProcessor(extractor, s.workers, s.recordTimeout)
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.logger))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequestSize(s.maxBodyBytes))
		r.Post("/extract", s.handleExtract)
		r.Post("/extract/batch", s.handleExtractBatch)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
