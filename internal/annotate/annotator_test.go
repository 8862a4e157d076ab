package annotate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/petty/internal/cache"
	"github.com/ppiankov/petty/internal/metrics"
	"github.com/ppiankov/petty/internal/model"
)

// countingBackend wraps the rules backend and counts calls
type countingBackend struct {
	calls atomic.Int32
	err   error
}

func (c *countingBackend) Name() string { return "counting" }
func (c *countingBackend) IsAvailable(ctx context.Context) bool { return true }

func (c *countingBackend) Annotate(ctx context.Context, text string) (*model.Document, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return NewRulesBackend(nil).Annotate(ctx, text)
}

func TestAdapter_CachesBackendOutput(t *testing.T) {
	backend := &countingBackend{}
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	adapter := NewAdapter(backend, NewGazetteer(nil, []string{"Whitby"}),
		WithCache(mem, time.Minute), WithMetrics(metrics.New()))

	text := "William Waters of Whitby"
	first, err := adapter.Annotate(context.Background(), text)
	if err != nil {
		t.Fatalf("annotate failed: %v", err)
	}
	second, err := adapter.Annotate(context.Background(), text)
	if err != nil {
		t.Fatalf("annotate failed: %v", err)
	}

	if backend.calls.Load() != 1 {
		t.Errorf("expected 1 backend call, got %d", backend.calls.Load())
	}
	if second.Tokens[3].Entity != model.EntityPlace {
		t.Error("expected gazetteer applied to cached document")
	}
	if len(first.Tokens) != len(second.Tokens) {
		t.Error("expected identical documents from cache")
	}

	// the cache holds the document from before the override
	var cached model.Document
	if !cache.GetJSON(mem, cache.CacheKey("counting", text), &cached) {
		t.Fatal("expected cache entry")
	}
	if cached.Tokens[3].Entity != model.EntityNone {
		t.Error("expected cached document without gazetteer entities")
	}
}

func TestAdapter_GazetteerChangeAppliesToCachedDocuments(t *testing.T) {
	backend := &countingBackend{}
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	text := "Hannah Nicholson of Sneaton"

	if _, err := NewAdapter(backend, nil, WithCache(mem, time.Minute)).Annotate(context.Background(), text); err != nil {
		t.Fatal(err)
	}

	g := NewGazetteer([]string{"Hannah Nicholson"}, nil)
	doc, err := NewAdapter(backend, g, WithCache(mem, time.Minute)).Annotate(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if backend.calls.Load() != 1 {
		t.Errorf("expected cache hit, got %d backend calls", backend.calls.Load())
	}
	if doc.Tokens[0].Entity != model.EntityPerson {
		t.Error("expected new gazetteer applied on a cache hit")
	}
}

func TestAdapter_BackendError(t *testing.T) {
	backend := &countingBackend{err: ErrUnavailable}
	adapter := NewAdapter(backend, nil)

	_, err := adapter.Annotate(context.Background(), "text")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected wrapped ErrUnavailable, got %v", err)
	}
}

func TestAdapter_Backend(t *testing.T) {
	backend := &countingBackend{}
	if got := NewAdapter(backend, nil).Backend(); got != Backend(backend) {
		t.Errorf("expected the wrapped backend, got %v", got)
	}
}

func TestAdapter_CancelledContext(t *testing.T) {
	backend := &countingBackend{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewAdapter(backend, nil).Annotate(ctx, "text"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if backend.calls.Load() != 0 {
		t.Error("expected no backend call after cancellation")
	}
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{"", "prose"},
		{"prose", "prose"},
		{"Rules", "rules"},
		{"spacy", "spacy"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			b, err := NewBackend(model.AnnotatorConfig{Backend: tt.backend, ServerURL: "http://localhost:5000"}, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b.Name() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, b.Name())
			}
		})
	}

	if _, err := NewBackend(model.AnnotatorConfig{Backend: "stanza"}, nil); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}
