// Package source reads conviction records from tabular and plain-text files.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when no reader handles a file
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Record is one free-text description to extract from
type Record struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Reader turns an input stream into records
type Reader interface {
	// Name returns the reader name
	Name() string

	// CanHandle reports whether the reader understands the file at path
	CanHandle(path string) bool

	// Read parses every record in r
	Read(r io.Reader) ([]Record, error)
}

// Registry picks a reader by file extension
type Registry struct {
	readers []Reader
}

// Options configures the built-in readers
type Options struct {
	Column      string
	IDColumn    string
	TitleColumn string
	TitlePrefix string
}

// NewRegistry creates a registry holding the built-in readers
func NewRegistry(opts Options) *Registry {
	r := &Registry{}
	r.Register(NewCSVReader(opts))
	r.Register(NewJSONLReader())
	r.Register(NewTextReader())
	return r
}

// Register adds a reader; earlier registrations win
func (r *Registry) Register(reader Reader) {
	r.readers = append(r.readers, reader)
}

// Find returns the first reader that can handle path
func (r *Registry) Find(path string) (Reader, error) {
	for _, reader := range r.readers {
		if reader.CanHandle(path) {
			return reader, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// ReadFile opens path and reads it with the matching reader
func (r *Registry) ReadFile(path string) ([]Record, error) {
	reader, err := r.Find(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := reader.Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s input: %w", reader.Name(), err)
	}
	return records, nil
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// appendClean cleans text and appends the record unless it ends up empty
func appendClean(records []Record, id, text string) []Record {
	text = Clean(text)
	if text == "" {
		return records
	}
	return append(records, Record{ID: id, Text: text})
}
