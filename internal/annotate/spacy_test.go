package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/petty/internal/model"
)

func newTestSpacy(t *testing.T, url string) *SpacyBackend {
	t.Helper()
	b, err := NewSpacyBackend(model.AnnotatorConfig{
		ServerURL: url,
		Timeout:   5 * time.Second,
		RetryMax:  2,
	}, nil)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	b.client.RetryWaitMin = time.Millisecond
	b.client.RetryWaitMax = 5 * time.Millisecond
	return b
}

func TestSpacyBackend_Annotate_Success(t *testing.T) {
	text := "William Waters of Whitby, jet worker"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/annotate" {
			t.Errorf("expected path /annotate, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		var req spacyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Text != text || req.Language != "en" {
			t.Errorf("unexpected request %+v", req)
		}

		_ = json.NewEncoder(w).Encode(spacyResponse{
			Tokens: []spacyToken{
				{Text: "William", Start: 0, End: 7, Tag: "NNP", EntType: "PERSON", EntIOB: "B"},
				{Text: "Waters", Start: 8, End: 14, Tag: "NNP", EntType: "PERSON", EntIOB: "I"},
				{Text: "of", Start: 15, End: 17, Tag: "IN", EntIOB: "O"},
				{Text: "Whitby", Start: 18, End: 24, Tag: "NNP", EntType: "GPE", EntIOB: "B"},
				{Text: ",", Start: 24, End: 25, Tag: ",", EntIOB: "O"},
				{Text: "jet", Start: 26, End: 29, Tag: "NN", EntIOB: "O"},
				{Text: "worker", Start: 30, End: 36, Tag: "NN", EntIOB: "O"},
			},
			Sentences: []spacySentence{{Start: 0, End: 36}},
		})
	}))
	defer server.Close()

	doc, err := newTestSpacy(t, server.URL).Annotate(context.Background(), text)
	if err != nil {
		t.Fatalf("annotate failed: %v", err)
	}

	if len(doc.Tokens) != 7 {
		t.Fatalf("expected 7 tokens, got %d", len(doc.Tokens))
	}
	if doc.Tokens[1].Entity != model.EntityPerson || doc.Tokens[1].Span != (model.Span{Start: 0, End: 2}) {
		t.Errorf("expected PERSON [0,2), got %q %v", doc.Tokens[1].Entity, doc.Tokens[1].Span)
	}
	if doc.Tokens[3].Entity != model.EntityPlace {
		t.Errorf("expected GPE collapsed to PLACE, got %q", doc.Tokens[3].Entity)
	}
	if doc.Tokens[2].Entity != model.EntityNone {
		t.Errorf("expected no entity on %q", doc.Tokens[2].Text)
	}
	if len(doc.Sentences) != 1 || doc.Sentences[0] != (model.Span{Start: 0, End: 7}) {
		t.Errorf("unexpected sentences %v", doc.Sentences)
	}
}

func TestConvertSpacy_RealignsBadOffsets(t *testing.T) {
	text := "Mary  Brown"
	doc := convertSpacy(text, &spacyResponse{
		Tokens: []spacyToken{
			{Text: "Mary", Start: 0, End: 4, Tag: "NNP", EntType: "PERSON", EntIOB: "B"},
			{Text: "Brown", Start: 5, End: 10, Tag: "NNP", EntType: "PERSON", EntIOB: "I"},
		},
	})

	if doc.Tokens[1].Start != 6 || doc.Tokens[1].End != 11 {
		t.Errorf("expected realigned offsets [6,11), got [%d,%d)", doc.Tokens[1].Start, doc.Tokens[1].End)
	}
	if doc.Tokens[0].Span != (model.Span{Start: 0, End: 2}) {
		t.Errorf("expected one PERSON span, got %v", doc.Tokens[0].Span)
	}
	if len(doc.Sentences) != 1 {
		t.Errorf("expected one implicit sentence, got %v", doc.Sentences)
	}
}

func TestConvertSpacy_AdjacentEntities(t *testing.T) {
	doc := convertSpacy("Whitby Sneaton", &spacyResponse{
		Tokens: []spacyToken{
			{Text: "Whitby", Start: 0, End: 6, Tag: "NNP", EntType: "GPE", EntIOB: "B"},
			{Text: "Sneaton", Start: 7, End: 14, Tag: "NNP", EntType: "GPE", EntIOB: "B"},
		},
	})
	if len(doc.EntitySpans()) != 2 {
		t.Errorf("expected a B tag to open a new entity, got %v", doc.EntitySpans())
	}
}

func TestSpacyBackend_ServerErrorIsUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer server.Close()

	_, err := newTestSpacy(t, server.URL).Annotate(context.Background(), "text")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 1 call plus 2 retries, got %d", calls.Load())
	}
}

func TestSpacyBackend_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"empty text"}`))
	}))
	defer server.Close()

	_, err := newTestSpacy(t, server.URL).Annotate(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Errorf("4xx must not be reported as unavailable: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls.Load())
	}
}

func TestSpacyBackend_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	b := newTestSpacy(t, url)
	b.client.RetryMax = 0
	if _, err := b.Annotate(context.Background(), "text"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestSpacyBackend_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if !newTestSpacy(t, server.URL).IsAvailable(context.Background()) {
		t.Error("expected backend to be available")
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	if newTestSpacy(t, down.URL).IsAvailable(context.Background()) {
		t.Error("expected backend to be unavailable")
	}
}

func TestNewSpacyBackend_RequiresURL(t *testing.T) {
	if _, err := NewSpacyBackend(model.AnnotatorConfig{}, nil); err == nil {
		t.Error("expected error without server URL")
	}
}
