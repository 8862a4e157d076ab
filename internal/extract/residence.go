package extract

import "github.com/ppiankov/petty/internal/model"

// findResidence scans forward from start for a place reference such as
// "of the township of Whitby". It returns the place text without leading or
// trailing prepositions and location nouns, and the index just past the last
// place-bearing token. When no place is found it returns "" and start.
func findResidence(doc *model.Document, start, limit int) (string, int) {
	i := start
	for i < limit && doc.Tokens[i].Text == "," {
		i++
	}

	first, last := -1, -1
	for ; i < limit; i++ {
		t := doc.Tokens[i]
		switch {
		case t.HasEntity(model.EntityPerson):
			return residenceText(doc, first, last, start)
		case t.HasEntity(model.EntityPlace):
			// place entities win over stop words, e.g. "Newholm and Dunsley"
		case inSet(phraseStops, t):
			return residenceText(doc, first, last, start)
		case inSet(prepositions, t), inSet(locationNouns, t):
			continue
		case t.IsProperNoun():
		default:
			// typically a lowercase noun starting the occupation
			return residenceText(doc, first, last, start)
		}

		if first < 0 {
			first = i
		}
		last = i
	}
	return residenceText(doc, first, last, start)
}

func residenceText(doc *model.Document, first, last, start int) (string, int) {
	if first < 0 {
		return "", start
	}
	return doc.Slice(first, last), last + 1
}
