package extract

import (
	"context"
	"testing"

	"github.com/ppiankov/petty/internal/annotate"
	"github.com/ppiankov/petty/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func annotateRules(t *testing.T, text string, persons, places []string) *model.Document {
	t.Helper()
	adapter := annotate.NewAdapter(annotate.NewRulesBackend(nil), annotate.NewGazetteer(persons, places))
	doc, err := adapter.Annotate(context.Background(), text)
	require.NoError(t, err)
	return doc
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"full month", "Offence committed at Whitby on 16 March 1873.", "1873-03-16"},
		{"abbreviated month", "committed on 2 Feb 1880 at Whitby", "1880-02-02"},
		{"sept", "committed on 9 Sept 1881.", "1881-09-09"},
		{"ordinal", "committed on 21st June 1879.", "1879-06-21"},
		{"skips non-date on", "conies on a piece of land. Offence committed on 26 September 1888", "1888-09-26"},
		{"unparseable", "committed on 31 February 1880.", ""},
		{"lowercase month", "committed on 16 march 1873.", ""},
		{"no on", "committed 16 March 1873.", ""},
		{"on at end", "committed on", ""},
		{"article before day", "Offence committed at Whitby on the 16 March 1873.", "1873-03-16"},
		{"ordinal of month", "committed on the 16th of March 1873.", "1873-03-16"},
		{"weekday before day", "committed on Monday 16 March 1873.", "1873-03-16"},
		{"day beyond window", "committed on a piece of land 16 March 1873.", ""},
		{"punctuation ends window", "committed on. 16 March 1873", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := annotateRules(t, tt.text, nil, nil)
			assert.Equal(t, tt.want, extractDate(doc))
		})
	}
}

func TestExtractOffence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"offence anchor", "Summary conviction of A B for being drunk in Flowergate. Offence committed at Whitby", "being drunk in Flowergate"},
		{"committed anchor", "for stealing a coat committed at Whitby", "stealing a coat"},
		{"sentence end fallback", "conviction of A B for assault. Case heard at Whitby", "assault"},
		{"no for", "Summary conviction of A B. Offence committed at Whitby", ""},
		{"nothing between", "for offence committed", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := annotateRules(t, tt.text, nil, nil)
			assert.Equal(t, tt.want, extractOffence(doc))
		})
	}
}

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Offence committed at the township of Whitby on 16 March 1873", "Whitby"},
		{"OFFENCE COMMITTED AT Sneaton.", "Sneaton"},
		{"offence committed at (Ruswarp) on 1 May", "Ruswarp"},
		{"offence committed at the township of", ""},
		{"committed at Whitby", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, extractLocation(tt.text))
		})
	}
}

func TestExtractCourtAndDivision(t *testing.T) {
	tests := []struct {
		text     string
		court    string
		division string
	}{
		{"on 16 March 1873. Whitby Strand - case heard at Whitby", "Whitby", "Whitby Strand"},
		{"1893. Whitby Strand Petty Sessional division - case heard at Whitby.", "Whitby", "Whitby Strand Petty Sessional division"},
		{"1870. Pickering: Case Heard At Pickering", "Pickering", "Pickering"},
		{"conviction of A B case heard at Whitby", "Whitby", ""},
		{"1870. Whitby Strand - case heard at", "", "Whitby Strand"},
		{"Offence committed at Whitby on 16 March 1873, case heard at Whitby", "Whitby", ""},
		{"1873. Whitby Strand - case heard at Whitby, Pickering: case heard at Pickering", "Whitby", "Whitby Strand"},
		{"no anchor here", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.court, extractCourt(tt.text))
			assert.Equal(t, tt.division, extractDivision(tt.text))
		})
	}
}

func TestFindResidence(t *testing.T) {
	doc := annotateRules(t, "of the township of Hawsker cum Stainsacre labourer", nil, []string{"Hawsker cum Stainsacre"})
	res, next := findResidence(doc, 0, len(doc.Tokens))
	assert.Equal(t, "Hawsker cum Stainsacre", res)
	assert.Equal(t, "labourer", doc.Tokens[next].Text)

	// without the gazetteer only the proper noun before "cum" is recognised
	doc = annotateRules(t, "of Eskdaleside cum Ugglebarnby labourer", nil, nil)
	res, _ = findResidence(doc, 0, len(doc.Tokens))
	assert.Equal(t, "Eskdaleside", res)

	doc = annotateRules(t, "of the township of, labourer", nil, nil)
	res, next = findResidence(doc, 0, len(doc.Tokens))
	assert.Empty(t, res)
	assert.Equal(t, 0, next)

	doc = annotateRules(t, ", of Whitby, labourer", nil, nil)
	res, _ = findResidence(doc, 0, len(doc.Tokens))
	assert.Equal(t, "Whitby", res)

	doc = annotateRules(t, "of John Smith", []string{"John Smith"}, nil)
	res, _ = findResidence(doc, 0, len(doc.Tokens))
	assert.Empty(t, res, "a person is never a residence")
}

func TestFindOccupation(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		truncate bool
		want     string
	}{
		{"two words", "jet worker for being drunk", false, "jet worker"},
		{"skips commas", ", blacksmith, for assault", false, "blacksmith"},
		{"joins across comma", "ostler, labourer for", false, "ostler labourer"},
		{"truncates at comma", "ostler, labourer for", true, "ostler"},
		{"stops at and", "waggoner and Mark", false, "waggoner"},
		{"stops at full stop", "constable. Offence", false, "constable"},
		{"stops at collective", ", all of the township", false, ""},
		{"skips leading dash", "- jet worker for", false, "jet worker"},
		{"skips leading bracket", "( labourer ) for", false, "labourer"},
		{"leading full stop", ". Constable for", false, ""},
		{"none", "for assault", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := annotateRules(t, tt.text, nil, nil)
			got, _ := findOccupation(doc, 0, len(doc.Tokens), tt.truncate)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegmentDefendants_AdjacentPersonEntities(t *testing.T) {
	doc := annotateRules(t, "Summary conviction of John Smith Thomas Harland for assault",
		[]string{"John Smith", "Thomas Harland"}, nil)

	people := segmentDefendants(doc)
	require.Len(t, people, 2)
	assert.Equal(t, "John Smith", people[0].FullName())
	assert.Equal(t, "Thomas Harland", people[1].FullName())
}

func TestSegmentDefendants_StaysInFirstSentence(t *testing.T) {
	doc := annotateRules(t, "Summary conviction of John Smith. Thomas Harland labourer",
		[]string{"John Smith", "Thomas Harland"}, nil)

	people := segmentDefendants(doc)
	require.Len(t, people, 1)
	assert.Equal(t, "Smith", people[0].Surname)
}
