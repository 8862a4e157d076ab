// Package extract turns the text of a summary-conviction record into a
// structured case: defendants with residence, occupation and gender, plus
// the date, offence, offence location, court and division.
//
// Extraction is rule-based. It walks the annotated token stream using POS
// tags, entity spans and the fixed phrasing of the records ("conviction of",
// "offence committed at", "case heard at"), so the same annotation always
// yields the same case.
package extract

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/ppiankov/petty/internal/annotate"
	"github.com/ppiankov/petty/internal/logging"
	"github.com/ppiankov/petty/internal/metrics"
	"github.com/ppiankov/petty/internal/model"
	"go.uber.org/zap"
)

// maxLoggedInput bounds the record text attached to warnings
const maxLoggedInput = 500

// Extractor runs the full pipeline for one record at a time. It holds no
// per-record state and is safe for concurrent use.
type Extractor struct {
	annotator annotate.Annotator
	resolver  GenderResolver
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLogger sets the logger used for zero-defendant warnings
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = logging.OrNop(l) }
}

// WithMetrics counts records by outcome
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// New creates an extractor. A nil resolver leaves every gender unknown.
func New(annotator annotate.Annotator, resolver GenderResolver, opts ...Option) *Extractor {
	e := &Extractor{
		annotator: annotator,
		resolver:  resolver,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract normalizes and annotates text and assembles the case. A record
// with no defendants is not an error: it is logged and counted, and the case
// comes back with an empty defendant list. Only annotation failures and
// cancellation return an error.
func (e *Extractor) Extract(ctx context.Context, text string) (*model.Case, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := Normalize(text)
	doc, err := e.annotator.Annotate(ctx, normalized)
	if err != nil {
		e.metrics.RecordError()
		return nil, fmt.Errorf("extract: %w", err)
	}

	c := ExtractDocument(doc, e.resolver)

	e.metrics.RecordCase(len(c.Defendants))
	if !c.Parsed() {
		e.logger.Warn("no defendants found", zap.String("input", truncate(text, maxLoggedInput)))
	}
	return c, nil
}

// ExtractDocument assembles a case from an already annotated, normalized record
func ExtractDocument(doc *model.Document, resolver GenderResolver) *model.Case {
	f := fields{
		date:     extractDate(doc),
		offence:  extractOffence(doc),
		location: extractLocation(doc.Text),
		court:    extractCourt(doc.Text),
		division: extractDivision(doc.Text),
	}
	return assemble(f, segmentDefendants(doc), segmentWitnesses(doc), resolver)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
