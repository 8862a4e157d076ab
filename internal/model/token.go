package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// EntityKind is the collapsed named-entity category of a token
type EntityKind string

const (
	EntityNone   EntityKind = ""
	EntityPerson EntityKind = "PERSON"
	EntityPlace  EntityKind = "PLACE" // GPE, LOC, FAC and ORG collapse here
	EntityDate   EntityKind = "DATE"
	EntityOther  EntityKind = "OTHER"
)

// EntityKindFromLabel maps an NER label to an EntityKind
func EntityKindFromLabel(label string) EntityKind {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "":
		return EntityNone
	case "PERSON", "PER":
		return EntityPerson
	case "GPE", "LOC", "FAC", "ORG", "PLACE":
		return EntityPlace
	case "DATE":
		return EntityDate
	default:
		return EntityOther
	}
}

// Span is a half-open range [Start, End)
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of positions covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether i falls inside the span
func (s Span) Contains(i int) bool {
	return i >= s.Start && i < s.End
}

// Overlaps reports whether two spans share at least one position
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Token is one annotated token of a record
type Token struct {
	Text   string     `json:"text"`
	Start  int        `json:"start"`            // Byte offset into Document.Text
	End    int        `json:"end"`              // Exclusive byte offset
	Tag    string     `json:"tag"`              // Penn Treebank POS tag
	Entity EntityKind `json:"entity,omitempty"` // Empty when the token is outside any entity
	Span   Span       `json:"span"`             // Token range of the entity, zero when Entity is empty
}

// HasEntity reports whether the token belongs to an entity of the given kind
func (t Token) HasEntity(kind EntityKind) bool {
	return t.Entity == kind && kind != EntityNone
}

// IsNoun reports whether the POS tag is a common or proper noun
func (t Token) IsNoun() bool {
	return strings.HasPrefix(t.Tag, "NN")
}

// IsProperNoun reports whether the POS tag is NNP or NNPS
func (t Token) IsProperNoun() bool {
	return strings.HasPrefix(t.Tag, "NNP")
}

// IsAdjective reports whether the POS tag is JJ, JJR or JJS
func (t Token) IsAdjective() bool {
	return strings.HasPrefix(t.Tag, "JJ")
}

// IsPunct reports whether the token consists only of punctuation or symbols
func (t Token) IsPunct() bool {
	if t.Text == "" {
		return false
	}
	for _, r := range t.Text {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// IsDigits reports whether the token is a run of decimal digits
func (t Token) IsDigits() bool {
	if t.Text == "" {
		return false
	}
	for _, r := range t.Text {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// LowerInitial reports whether the first rune of the token is a lowercase letter
func (t Token) LowerInitial() bool {
	r, _ := utf8.DecodeRuneInString(t.Text)
	return unicode.IsLower(r)
}

// Is compares the token text case-insensitively
func (t Token) Is(word string) bool {
	return strings.EqualFold(t.Text, word)
}

// Document is the annotation of one normalized record
type Document struct {
	Text      string  `json:"text"`
	Tokens    []Token `json:"tokens"`
	Sentences []Span  `json:"sentences"` // Token ranges, ordered and non-overlapping
}

// SentenceOf returns the token range of the sentence holding token i.
// A document without sentence boundaries is treated as one sentence.
func (d *Document) SentenceOf(i int) Span {
	for _, s := range d.Sentences {
		if s.Contains(i) {
			return s
		}
	}
	return Span{Start: 0, End: len(d.Tokens)}
}

// Slice returns the source text between tokens from and to (inclusive)
func (d *Document) Slice(from, to int) string {
	if from < 0 || to >= len(d.Tokens) || from > to {
		return ""
	}
	return d.Text[d.Tokens[from].Start:d.Tokens[to].End]
}

// Clone returns a deep copy whose token slice can be modified freely
func (d *Document) Clone() *Document {
	c := &Document{Text: d.Text}
	c.Tokens = append([]Token(nil), d.Tokens...)
	c.Sentences = append([]Span(nil), d.Sentences...)
	return c
}

// EntitySpans returns the distinct entity spans of the document in order
func (d *Document) EntitySpans() []Span {
	var spans []Span
	for i := 0; i < len(d.Tokens); i++ {
		t := d.Tokens[i]
		if t.Entity == EntityNone || t.Span.Start != i {
			continue
		}
		spans = append(spans, t.Span)
	}
	return spans
}
