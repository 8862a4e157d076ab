package annotate

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/petty/internal/model"
	"gopkg.in/yaml.v3"
)

type gazetteerEntry struct {
	text string
	kind model.EntityKind
}

// Gazetteer is an immutable list of names forced into the entity layer
type Gazetteer struct {
	entries []gazetteerEntry
}

// NewGazetteer builds a gazetteer. Entries are deduplicated and ordered
// longest first; a string listed as both person and place stays a person.
func NewGazetteer(persons, places []string) *Gazetteer {
	seen := make(map[string]bool)
	var entries []gazetteerEntry
	add := func(names []string, kind model.EntityKind) {
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			entries = append(entries, gazetteerEntry{text: n, kind: kind})
		}
	}
	add(persons, model.EntityPerson)
	add(places, model.EntityPlace)

	sort.SliceStable(entries, func(i, j int) bool {
		if len(entries[i].text) != len(entries[j].text) {
			return len(entries[i].text) > len(entries[j].text)
		}
		return entries[i].text < entries[j].text
	})
	return &Gazetteer{entries: entries}
}

// NewGazetteerFromConfig merges the inline lists with every configured file
func NewGazetteerFromConfig(cfg model.GazetteerConfig) (*Gazetteer, error) {
	persons := append([]string(nil), cfg.PersonNames...)
	places := append([]string(nil), cfg.PlaceNames...)
	for _, path := range cfg.Files {
		fc, err := LoadGazetteerFile(path)
		if err != nil {
			return nil, err
		}
		persons = append(persons, fc.PersonNames...)
		places = append(places, fc.PlaceNames...)
	}
	return NewGazetteer(persons, places), nil
}

// LoadGazetteerFile reads person_names and place_names from a YAML file
func LoadGazetteerFile(path string) (model.GazetteerConfig, error) {
	var cfg model.GazetteerConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read gazetteer: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse gazetteer %s: %w", path, err)
	}
	return cfg, nil
}

// Len returns the number of distinct entries
func (g *Gazetteer) Len() int {
	return len(g.entries)
}

type gazetteerMatch struct {
	from, to int // token range, half-open
	kind     model.EntityKind
}

// Apply returns a copy of doc in which every token-aligned literal occurrence
// of a gazetteer entry is one entity of the entry's kind. Base entities that
// overlap a match are removed whole, never merged.
func (g *Gazetteer) Apply(doc *model.Document) *model.Document {
	out := doc.Clone()
	if len(g.entries) == 0 || len(out.Tokens) == 0 {
		return out
	}

	startAt := make(map[int]int, len(out.Tokens))
	endAt := make(map[int]int, len(out.Tokens))
	for i, t := range out.Tokens {
		if t.Start == t.End {
			continue
		}
		if _, ok := startAt[t.Start]; !ok {
			startAt[t.Start] = i
		}
		endAt[t.End] = i
	}

	claimed := make([]bool, len(out.Tokens))
	var matches []gazetteerMatch
	for _, e := range g.entries {
		for pos := 0; pos < len(out.Text); {
			idx := strings.Index(out.Text[pos:], e.text)
			if idx < 0 {
				break
			}
			at := pos + idx
			pos = at + 1

			from, ok := startAt[at]
			if !ok {
				continue
			}
			last, ok := endAt[at+len(e.text)]
			if !ok || last < from {
				continue
			}
			if anyClaimed(claimed, from, last+1) {
				continue
			}
			for i := from; i <= last; i++ {
				claimed[i] = true
			}
			matches = append(matches, gazetteerMatch{from: from, to: last + 1, kind: e.kind})
		}
	}

	for _, m := range matches {
		for i := m.from; i < m.to; i++ {
			clearEntity(out.Tokens, i)
		}
	}
	for _, m := range matches {
		markEntity(out.Tokens, m.from, m.to, m.kind)
	}
	return out
}

func anyClaimed(claimed []bool, from, to int) bool {
	for i := from; i < to; i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}
