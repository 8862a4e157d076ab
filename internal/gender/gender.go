// Package gender resolves a defendant's gender from their first forename.
package gender

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/ppiankov/petty/internal/model"
)

// Classifier categories
const (
	Male         = "male"
	MostlyMale   = "mostly_male"
	Female       = "female"
	MostlyFemale = "mostly_female"
	Andy         = "andy" // used for either sex
	Unknown      = "unknown"
)

// Classifier maps a forename to a category
type Classifier interface {
	Classify(name string) string
}

//go:embed names.csv
var defaultNames string

// Dictionary is a read-only forename table, safe for concurrent use once built
type Dictionary struct {
	names map[string]string
}

// NewDictionary returns the built-in dictionary
func NewDictionary() *Dictionary {
	d := &Dictionary{names: make(map[string]string)}
	// the embedded list is validated by tests
	_ = d.merge(strings.NewReader(defaultNames))
	return d
}

// LoadDictionary returns the built-in dictionary extended by the file at
// path. Entries in the file replace built-in ones.
func LoadDictionary(path string) (*Dictionary, error) {
	d := NewDictionary()
	if path == "" {
		return d, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open names file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := d.merge(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// merge reads "name,category" lines; blank lines and # comments are skipped
func (d *Dictionary) merge(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, category, ok := strings.Cut(line, ",")
		if !ok {
			return fmt.Errorf("line %d: expected name,category", lineNo)
		}
		category = strings.ToLower(strings.TrimSpace(category))
		if !validCategory(category) {
			return fmt.Errorf("line %d: unknown category %q", lineNo, category)
		}
		d.names[strings.ToLower(strings.TrimSpace(name))] = category
	}
	return scanner.Err()
}

// Len returns the number of names
func (d *Dictionary) Len() int {
	return len(d.names)
}

// Classify looks a name up case-insensitively
func (d *Dictionary) Classify(name string) string {
	if c, ok := d.names[strings.ToLower(name)]; ok {
		return c
	}
	return Unknown
}

func validCategory(c string) bool {
	switch c {
	case Male, MostlyMale, Female, MostlyFemale, Andy, Unknown:
		return true
	}
	return false
}

// Resolver collapses classifier categories into a model.Gender
type Resolver struct {
	classifier Classifier
}

// NewResolver creates a resolver over c
func NewResolver(c Classifier) *Resolver {
	return &Resolver{classifier: c}
}

// Resolve classifies the first forename. Abbreviations such as "Wm." are
// looked up without their full stop.
func (r *Resolver) Resolve(forenames string) model.Gender {
	fields := strings.Fields(forenames)
	if len(fields) == 0 {
		return model.GenderUnknown
	}
	first := strings.TrimFunc(fields[0], func(c rune) bool { return !unicode.IsLetter(c) })
	if first == "" {
		return model.GenderUnknown
	}

	switch r.classifier.Classify(first) {
	case Male, MostlyMale:
		return model.GenderMale
	case Female, MostlyFemale:
		return model.GenderFemale
	default:
		return model.GenderUnknown
	}
}
