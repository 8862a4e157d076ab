package annotate

import (
	"context"
	"fmt"

	"github.com/ppiankov/petty/internal/model"
	"github.com/tsawler/prose/v3"
)

// ProseBackend annotates in-process with the prose averaged-perceptron models
type ProseBackend struct{}

// NewProseBackend creates a prose backend
func NewProseBackend() *ProseBackend {
	return &ProseBackend{}
}

// Name returns the backend name
func (p *ProseBackend) Name() string {
	return "prose"
}

// IsAvailable always reports true; the models are compiled in
func (p *ProseBackend) IsAvailable(ctx context.Context) bool {
	return true
}

// Annotate tokenizes, tags and segments text
func (p *ProseBackend) Annotate(ctx context.Context, text string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("prose document: %w", err)
	}

	proseTokens := doc.Tokens()
	words := make([]string, len(proseTokens))
	tags := make([]string, len(proseTokens))
	for i, tok := range proseTokens {
		words[i] = tok.Text
		tags[i] = tok.Tag
	}
	tokens := alignTokens(text, words, tags)

	var ents []charRange
	for _, ent := range doc.Entities() {
		kind := model.EntityKindFromLabel(ent.Label)
		if kind == model.EntityNone {
			continue
		}
		start, end := ent.Start, ent.End
		if start < 0 || end > len(text) || start >= end || text[start:end] != ent.Text {
			// fall back to locating the entity text
			start, end = locate(text, ent.Text, start)
			if start < 0 {
				continue
			}
		}
		ents = append(ents, charRange{start: start, end: end, kind: kind})
	}
	applyCharEntities(tokens, ents)

	var sentences []string
	for _, s := range doc.Sentences() {
		sentences = append(sentences, s.Text)
	}

	return &model.Document{
		Text:      text,
		Tokens:    tokens,
		Sentences: sentenceSpans(tokens, locateSentences(text, sentences)),
	}, nil
}

// locate finds needle nearest to hint, searching forward first
func locate(text, needle string, hint int) (int, int) {
	if needle == "" {
		return -1, -1
	}
	if hint < 0 || hint > len(text) {
		hint = 0
	}
	if idx := indexFrom(text, needle, hint); idx >= 0 {
		return idx, idx + len(needle)
	}
	if idx := indexFrom(text, needle, 0); idx >= 0 {
		return idx, idx + len(needle)
	}
	return -1, -1
}
