package cli

import (
	"context"
	"fmt"

	"github.com/ppiankov/petty/internal/annotate"
	"github.com/ppiankov/petty/internal/cache"
	"github.com/ppiankov/petty/internal/extract"
	"github.com/ppiankov/petty/internal/gender"
	"github.com/ppiankov/petty/internal/metrics"
	"github.com/ppiankov/petty/internal/model"
	"go.uber.org/zap"
)

// services are built once per process and shared by every record
type services struct {
	cfg       *model.Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	adapter   *annotate.Adapter
	extractor *extract.Extractor
}

func newServices(cfg *model.Config, logger *zap.Logger) (*services, error) {
	backend, err := annotate.NewBackend(cfg.Annotator, logger)
	if err != nil {
		return nil, fmt.Errorf("annotation backend: %w", err)
	}

	gazetteer, err := annotate.NewGazetteerFromConfig(cfg.Gazetteer)
	if err != nil {
		return nil, fmt.Errorf("gazetteer: %w", err)
	}

	dict, err := gender.LoadDictionary(cfg.Gender.NamesFile)
	if err != nil {
		return nil, fmt.Errorf("gender dictionary: %w", err)
	}

	m := metrics.New()
	opts := []annotate.Option{
		annotate.WithLogger(logger),
		annotate.WithMetrics(m),
	}
	if cfg.Cache.Enabled {
		c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		// ttl 0 lets each layer apply its own configured TTL
		opts = append(opts, annotate.WithCache(c, 0))
	}
	adapter := annotate.NewAdapter(backend, gazetteer, opts...)

	logger.Debug("services ready",
		zap.String("backend", backend.Name()),
		zap.Int("gazetteer_entries", gazetteer.Len()),
		zap.Int("forenames", dict.Len()),
		zap.Bool("cache", cfg.Cache.Enabled))

	extractor := extract.New(adapter, gender.NewResolver(dict),
		extract.WithLogger(logger),
		extract.WithMetrics(m))

	return &services{
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		adapter:   adapter,
		extractor: extractor,
	}, nil
}

// checkBackend warns when the backend cannot serve requests yet
func (s *services) checkBackend(ctx context.Context) {
	backend := s.adapter.Backend()
	if !backend.IsAvailable(ctx) {
		s.logger.Warn("annotation backend not available",
			zap.String("backend", backend.Name()),
			zap.String("server_url", s.cfg.Annotator.ServerURL))
	}
}
