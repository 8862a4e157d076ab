// Package annotate produces tokens, POS tags, entities and sentence
// boundaries for a record, and forces gazetteer names into the entity layer.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/petty/internal/cache"
	"github.com/ppiankov/petty/internal/logging"
	"github.com/ppiankov/petty/internal/metrics"
	"github.com/ppiankov/petty/internal/model"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable means the NLP collaborator could not be reached or kept failing
	ErrUnavailable = errors.New("annotation backend unavailable")

	// ErrUnknownBackend is returned for an unrecognised backend name
	ErrUnknownBackend = errors.New("unknown annotation backend")
)

// Annotator annotates normalized record text
type Annotator interface {
	Annotate(ctx context.Context, text string) (*model.Document, error)
}

// Backend is an NLP implementation behind the Adapter
type Backend interface {
	// Name identifies the backend in cache keys and metrics
	Name() string

	// Annotate tags text; the returned document is owned by the caller
	Annotate(ctx context.Context, text string) (*model.Document, error)

	// IsAvailable checks whether the backend can serve requests
	IsAvailable(ctx context.Context) bool
}

// NewBackend builds the backend named in cfg
func NewBackend(cfg model.AnnotatorConfig, logger *zap.Logger) (Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case "prose", "":
		return NewProseBackend(), nil
	case "spacy":
		return NewSpacyBackend(cfg, logger)
	case "rules":
		return NewRulesBackend(nil), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: prose, spacy, rules)", ErrUnknownBackend, cfg.Backend)
	}
}

// Adapter wraps a backend with caching and the gazetteer override.
// It is safe for concurrent use.
type Adapter struct {
	backend   Backend
	gazetteer *Gazetteer
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures an Adapter
type Option func(*Adapter)

// WithCache stores backend documents in c
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(a *Adapter) {
		a.cache = c
		a.cacheTTL = ttl
	}
}

// WithLogger sets the adapter logger
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) { a.logger = logging.OrNop(l) }
}

// WithMetrics records cache and latency metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// NewAdapter creates an adapter; a nil gazetteer disables the override
func NewAdapter(backend Backend, gazetteer *Gazetteer, opts ...Option) *Adapter {
	a := &Adapter{
		backend:   backend,
		gazetteer: gazetteer,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Backend returns the wrapped backend
func (a *Adapter) Backend() Backend {
	return a.backend
}

// Annotate returns the backend annotation of text with gazetteer names applied
func (a *Adapter) Annotate(ctx context.Context, text string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := a.base(ctx, text)
	if err != nil {
		return nil, err
	}

	if a.gazetteer == nil {
		return doc, nil
	}
	return a.gazetteer.Apply(doc), nil
}

// base returns the cached or freshly computed backend document
func (a *Adapter) base(ctx context.Context, text string) (*model.Document, error) {
	name := a.backend.Name()
	var key string

	if a.cache != nil {
		key = cache.CacheKey(name, text)
		var doc model.Document
		if cache.GetJSON(a.cache, key, &doc) && doc.Text == text {
			a.metrics.RecordCacheAccess(true)
			a.logger.Debug("annotation cache hit", zap.String("key", key))
			return &doc, nil
		}
		a.metrics.RecordCacheAccess(false)
	}

	start := time.Now()
	doc, err := a.backend.Annotate(ctx, text)
	a.metrics.ObserveAnnotation(name, time.Since(start))
	if err != nil {
		a.logger.Error("annotation failed", zap.String("backend", name), zap.Error(err))
		return nil, fmt.Errorf("annotate with %s: %w", name, err)
	}

	if a.cache != nil {
		if err := cache.SetJSON(a.cache, key, doc, a.cacheTTL); err != nil {
			a.logger.Warn("annotation cache write failed", zap.Error(err))
		}
	}
	return doc, nil
}
