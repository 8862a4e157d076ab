package extract

import (
	"strings"

	"github.com/ppiankov/petty/internal/model"
)

// Word classes of the record phrasing
var (
	defendantStops = wordSet("for", "on", "offence")
	witnessStops   = wordSet("offence", "committed")
	phraseStops    = wordSet("for", "on", "offence", "and")
	prepositions   = wordSet("of", "from", "at", "in", "the")
	locationNouns  = wordSet("village", "township", "town")
)

func wordSet(words ...string) map[string]bool {
	s := make(map[string]bool, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}

func inSet(set map[string]bool, t model.Token) bool {
	return set[strings.ToLower(t.Text)]
}

// isCollective reports whether "all of" or "both of" starts at token i
func isCollective(doc *model.Document, i, limit int) bool {
	if i+1 >= limit {
		return false
	}
	t := doc.Tokens[i]
	return (t.Is("all") || t.Is("both")) && doc.Tokens[i+1].Is("of")
}

// indexOf returns the first token in [from, to) matching one of words, or -1
func indexOf(doc *model.Document, from, to int, words ...string) int {
	if to > len(doc.Tokens) {
		to = len(doc.Tokens)
	}
	for i := from; i < to; i++ {
		for _, w := range words {
			if doc.Tokens[i].Is(w) {
				return i
			}
		}
	}
	return -1
}
