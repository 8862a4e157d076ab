package annotate

import (
	"sort"
	"strings"

	"github.com/ppiankov/petty/internal/model"
)

// charRange is a byte range of the source text with an optional entity kind
type charRange struct {
	start, end int
	kind       model.EntityKind
}

// alignTokens locates each token text in order and returns tokens with offsets.
// A token the tokenizer rewrote (quotes, ellipses) gets a zero-width position
// at the cursor rather than failing the record.
func alignTokens(text string, words []string, tags []string) []model.Token {
	tokens := make([]model.Token, 0, len(words))
	cursor := 0
	for i, w := range words {
		tok := model.Token{Text: w, Start: cursor, End: cursor}
		if i < len(tags) {
			tok.Tag = tags[i]
		}
		if idx := strings.Index(text[cursor:], w); w != "" && idx >= 0 {
			tok.Start = cursor + idx
			tok.End = tok.Start + len(w)
			cursor = tok.End
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// markEntity tags tokens [from, to) as one entity span
func markEntity(tokens []model.Token, from, to int, kind model.EntityKind) {
	if kind == model.EntityNone || from < 0 || to > len(tokens) || from >= to {
		return
	}
	span := model.Span{Start: from, End: to}
	for i := from; i < to; i++ {
		tokens[i].Entity = kind
		tokens[i].Span = span
	}
}

// clearEntity removes the entity covering token i, all of it
func clearEntity(tokens []model.Token, i int) {
	if tokens[i].Entity == model.EntityNone {
		return
	}
	span := tokens[i].Span
	for j := span.Start; j < span.End && j < len(tokens); j++ {
		tokens[j].Entity = model.EntityNone
		tokens[j].Span = model.Span{}
	}
}

// applyCharEntities maps character-range entities onto tokens. Ranges that
// overlap an already tagged token are skipped so spans never overlap.
func applyCharEntities(tokens []model.Token, ents []charRange) {
	sort.SliceStable(ents, func(i, j int) bool { return ents[i].start < ents[j].start })
	for _, e := range ents {
		from, to := -1, -1
		for i, t := range tokens {
			if t.End <= e.start || t.Start >= e.end || t.Start == t.End {
				continue
			}
			if from < 0 {
				from = i
			}
			to = i + 1
		}
		if from < 0 {
			continue
		}
		free := true
		for i := from; i < to; i++ {
			if tokens[i].Entity != model.EntityNone {
				free = false
				break
			}
		}
		if free {
			markEntity(tokens, from, to, e.kind)
		}
	}
}

// sentenceSpans converts sentence character ranges into token ranges that
// cover every token exactly once
func sentenceSpans(tokens []model.Token, sents []charRange) []model.Span {
	if len(tokens) == 0 {
		return nil
	}
	if len(sents) == 0 {
		return []model.Span{{Start: 0, End: len(tokens)}}
	}

	var spans []model.Span
	start := 0
	for si := 0; si < len(sents)-1; si++ {
		end := start
		for end < len(tokens) && tokens[end].Start < sents[si+1].start {
			end++
		}
		if end > start {
			spans = append(spans, model.Span{Start: start, End: end})
			start = end
		}
	}
	if start < len(tokens) {
		spans = append(spans, model.Span{Start: start, End: len(tokens)})
	}
	return spans
}

// locateSentences finds each sentence text in order
func locateSentences(text string, sentences []string) []charRange {
	out := make([]charRange, 0, len(sentences))
	cursor := 0
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		idx := strings.Index(text[cursor:], s)
		if idx < 0 {
			continue
		}
		r := charRange{start: cursor + idx, end: cursor + idx + len(s)}
		out = append(out, r)
		cursor = r.end
	}
	return out
}

func indexFrom(text, needle string, from int) int {
	if from > len(text) {
		return -1
	}
	idx := strings.Index(text[from:], needle)
	if idx < 0 {
		return -1
	}
	return from + idx
}
