package extract

import (
	"strings"

	"github.com/ppiankov/petty/internal/model"
)

// findOccupation collects the lowercase noun and adjective phrase that follows
// a name or residence, e.g. "jet worker". Commas are skipped unless truncate
// is set, in which case a comma after the first word ends the phrase. It
// returns the phrase and the index just past its last word, or "" and start.
func findOccupation(doc *model.Document, start, limit int, truncate bool) (string, int) {
	var words []string
	next := start

scan:
	for i := start; i < limit; i++ {
		t := doc.Tokens[i]
		switch {
		case t.Text == ",":
			if truncate && len(words) > 0 {
				break scan
			}
		case inSet(phraseStops, t), t.HasEntity(model.EntityPerson), isCollective(doc, i, limit):
			break scan
		case fitsOccupation(t):
			words = append(words, t.Text)
			next = i + 1
		case len(words) > 0, isSentenceEnd(t):
			break scan
		}
	}

	return strings.Join(words, " "), next
}

func isSentenceEnd(t model.Token) bool {
	return t.Text == "." || t.Text == "!" || t.Text == "?"
}

func fitsOccupation(t model.Token) bool {
	if t.Entity != model.EntityNone || !t.LowerInitial() {
		return false
	}
	return t.IsNoun() || t.IsAdjective()
}

// needsTruncation reports whether two or more place entities precede the
// first "for" of a clause. Such lists carry several residence clauses and
// occupations must not run on across commas into the next defendant.
func needsTruncation(doc *model.Document, from, limit int) bool {
	end := indexOf(doc, from, limit, "for")
	if end < 0 {
		end = limit
	}

	places := 0
	for _, s := range doc.EntitySpans() {
		if s.Start >= from && s.Start < end && doc.Tokens[s.Start].Entity == model.EntityPlace {
			places++
		}
	}
	return places >= 2
}
