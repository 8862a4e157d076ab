package source

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TextReader reads one record per line
type TextReader struct{}

// NewTextReader creates a plain-text reader
func NewTextReader() *TextReader {
	return &TextReader{}
}

// Name returns the reader name
func (t *TextReader) Name() string { return "text" }

// CanHandle accepts .txt files
func (t *TextReader) CanHandle(path string) bool {
	return hasExt(path, ".txt", ".text")
}

// Read skips blank lines, # comments and repeated lines
func (t *TextReader) Read(r io.Reader) ([]Record, error) {
	var records []Record
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true

		records = appendClean(records, strconv.Itoa(lineNo), line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return records, nil
}
