package extract

import (
	"strings"
	"time"
	"unicode"

	"github.com/ppiankov/petty/internal/model"
)

// Anchor phrases of the case-level fields
const (
	locationAnchor = "offence committed at"
	courtAnchor    = "case heard at"
)

var dateLayouts = []string{"2 January 2006", "2 Jan 2006"}

// monthNames maps the month spellings found in records to a form time.Parse accepts
var monthNames = map[string]string{
	"January": "January", "February": "February", "March": "March", "April": "April",
	"May": "May", "June": "June", "July": "July", "August": "August",
	"September": "September", "October": "October", "November": "November", "December": "December",
	"Jan": "Jan", "Feb": "Feb", "Mar": "Mar", "Apr": "Apr", "Jun": "Jun", "Jul": "Jul",
	"Aug": "Aug", "Sep": "Sep", "Sept": "Sep", "Oct": "Oct", "Nov": "Nov", "Dec": "Dec",
}

var ordinalSuffixes = []string{"st", "nd", "rd", "th"}

// extractDate parses the first "on <day> <month> <year>" that forms a valid
// date and returns it as YYYY-MM-DD, or "" when none does
func extractDate(doc *model.Document) string {
	for i, t := range doc.Tokens {
		if !t.Is("on") {
			continue
		}
		if d, ok := parseDateAt(doc, i+1); ok {
			return d
		}
	}
	return ""
}

// dateWindow bounds the words skipped between "on" and the day, as in
// "on the 16 March" or "on Monday 16 March"
const dateWindow = 3

// parseDateAt collects the day, month and year tokens at or shortly after from
func parseDateAt(doc *model.Document, from int) (string, bool) {
	var parts []string
	for i := from; i < len(doc.Tokens) && len(parts) < 3; i++ {
		t := doc.Tokens[i]
		if part, ok := datePart(t); ok {
			parts = append(parts, part)
			continue
		}
		if len(parts) == 0 {
			if i-from < dateWindow && !t.IsPunct() {
				continue
			}
			break
		}
		if isOrdinalSuffix(doc, i) || t.Is("of") {
			continue
		}
		break
	}
	if len(parts) == 0 {
		return "", false
	}

	value := strings.Join(parts, " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}

func datePart(t model.Token) (string, bool) {
	if t.IsDigits() {
		return t.Text, true
	}
	if m, ok := monthNames[t.Text]; ok {
		return m, true
	}
	// "16th" as a single token
	for _, suffix := range ordinalSuffixes {
		day := strings.TrimSuffix(t.Text, suffix)
		if day != t.Text && day != "" && (model.Token{Text: day}).IsDigits() {
			return day, true
		}
	}
	return "", false
}

// isOrdinalSuffix reports a "th" split off the digits directly before it
func isOrdinalSuffix(doc *model.Document, i int) bool {
	if i == 0 {
		return false
	}
	prev, t := doc.Tokens[i-1], doc.Tokens[i]
	if !prev.IsDigits() || prev.End != t.Start {
		return false
	}
	for _, suffix := range ordinalSuffixes {
		if t.Text == suffix {
			return true
		}
	}
	return false
}

// extractOffence returns the text between the first "for" and the next
// "offence" or "committed". Without either it runs to the end of the sentence.
func extractOffence(doc *model.Document) string {
	start := indexOf(doc, 0, len(doc.Tokens), "for")
	if start < 0 {
		return ""
	}

	end := indexOf(doc, start+1, len(doc.Tokens), "offence", "committed")
	if end < 0 {
		end = doc.SentenceOf(start).End
	}
	if end <= start+1 {
		return ""
	}

	text := doc.Text[doc.Tokens[start+1].Start:doc.Tokens[end-1].End]
	return strings.TrimRight(strings.TrimSpace(text), ". ")
}

// extractLocation returns the first capitalised word after "offence committed at"
func extractLocation(text string) string {
	idx := indexFold(text, locationAnchor)
	if idx < 0 {
		return ""
	}

	for _, word := range strings.Fields(text[idx+len(locationAnchor):]) {
		word = trimPunct(word)
		for _, r := range word {
			if unicode.IsLetter(r) {
				if unicode.IsUpper(r) {
					return word
				}
				break
			}
		}
	}
	return ""
}

// extractCourt returns the word after "case heard at"
func extractCourt(text string) string {
	idx := indexFold(text, courtAnchor)
	if idx < 0 {
		return ""
	}

	words := strings.Fields(text[idx+len(courtAnchor):])
	if len(words) == 0 {
		return ""
	}
	return trimPunct(words[0])
}

// extractDivision returns the petty sessional division that precedes
// "case heard at" in the same sentence or clause, e.g. "Whitby Strand"
func extractDivision(text string) string {
	idx := indexFold(text, courtAnchor)
	if idx < 0 {
		return ""
	}

	before := text[:idx]
	boundary := strings.LastIndexAny(before, ".!?;,")
	if boundary < 0 {
		// the record never left its first sentence
		return ""
	}

	division := strings.TrimSpace(before[boundary+1:])
	return strings.TrimSpace(strings.TrimRight(division, "-\u2013\u2014: "))
}

// indexFold finds an ASCII phrase in text, ignoring case
func indexFold(text, phrase string) int {
	for i := 0; i+len(phrase) <= len(text); i++ {
		if strings.EqualFold(text[i:i+len(phrase)], phrase) {
			return i
		}
	}
	return -1
}

func trimPunct(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
