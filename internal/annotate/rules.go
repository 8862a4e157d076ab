package annotate

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/petty/internal/model"
)

var ruleTokenPattern = regexp.MustCompile(`[\p{L}]+(?:['’][\p{L}]+)*|\p{N}+|[^\s\p{L}\p{N}]`)

// closedClass tags the function words that matter to the extractors
var closedClass = map[string]string{
	"of": "IN", "from": "IN", "at": "IN", "in": "IN", "on": "IN", "by": "IN",
	"for": "IN", "with": "IN", "into": "IN", "upon": "IN", "near": "IN", "within": "IN",
	"to": "TO",
	"the": "DT", "a": "DT", "an": "DT", "all": "DT", "both": "DT", "each": "DT", "this": "DT",
	"and": "CC", "or": "CC", "but": "CC", "cum": "CC",
	"being": "VBG", "having": "VBG", "doing": "VBG",
	"committed": "VBN", "heard": "VBN", "convicted": "VBN", "fined": "VBN",
	"was": "VBD", "were": "VBD", "is": "VBZ", "are": "VBP", "be": "VB",
	"his": "PRP$", "her": "PRP$", "their": "PRP$", "he": "PRP", "she": "PRP", "they": "PRP",
	"said": "JJ", "drunk": "JJ", "riotous": "JJ", "disorderly": "JJ",
	"not": "RB",
}

// RulesBackend is a deterministic, model-free annotator. It tokenizes with a
// regular expression, tags closed-class words from a lexicon and everything
// else by shape, and recognises no entities of its own: names come from the
// gazetteer. It suits reproducible runs over a well-curated gazetteer.
type RulesBackend struct {
	tags map[string]string
}

// NewRulesBackend creates a rules backend; extra overrides the built-in lexicon
func NewRulesBackend(extra map[string]string) *RulesBackend {
	tags := make(map[string]string, len(closedClass)+len(extra))
	for k, v := range closedClass {
		tags[k] = v
	}
	for k, v := range extra {
		tags[strings.ToLower(k)] = v
	}
	return &RulesBackend{tags: tags}
}

// Name returns the backend name
func (r *RulesBackend) Name() string {
	return "rules"
}

// IsAvailable always reports true
func (r *RulesBackend) IsAvailable(ctx context.Context) bool {
	return true
}

// Annotate tokenizes and tags text
func (r *RulesBackend) Annotate(ctx context.Context, text string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	locs := ruleTokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]model.Token, 0, len(locs))
	for _, loc := range locs {
		word := text[loc[0]:loc[1]]
		tokens = append(tokens, model.Token{
			Text:  word,
			Start: loc[0],
			End:   loc[1],
			Tag:   r.tag(word),
		})
	}

	return &model.Document{
		Text:      text,
		Tokens:    tokens,
		Sentences: ruleSentences(tokens),
	}, nil
}

func (r *RulesBackend) tag(word string) string {
	if t, ok := r.tags[strings.ToLower(word)]; ok {
		return t
	}
	first, _ := utf8.DecodeRuneInString(word)
	switch {
	case unicode.IsDigit(first):
		return "CD"
	case unicode.IsUpper(first):
		return "NNP"
	case unicode.IsLetter(first):
		if strings.HasSuffix(word, "s") && len(word) > 3 && !strings.HasSuffix(word, "ss") {
			return "NNS"
		}
		return "NN"
	case word == "," || word == "." || word == ":" || word == ";":
		return word
	default:
		return ":"
	}
}

// ruleSentences splits after . ! ? unless the full stop closes an initial such as "H."
func ruleSentences(tokens []model.Token) []model.Span {
	if len(tokens) == 0 {
		return nil
	}
	var spans []model.Span
	start := 0
	for i, t := range tokens {
		if t.Text != "." && t.Text != "!" && t.Text != "?" {
			continue
		}
		if t.Text == "." && i > 0 && isInitial(tokens[i-1].Text) {
			continue
		}
		spans = append(spans, model.Span{Start: start, End: i + 1})
		start = i + 1
	}
	if start < len(tokens) {
		spans = append(spans, model.Span{Start: start, End: len(tokens)})
	}
	return spans
}

func isInitial(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size == len(s) && unicode.IsUpper(r)
}
