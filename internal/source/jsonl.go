package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// JSONLReader reads one JSON object per line
type JSONLReader struct{}

// NewJSONLReader creates a JSONL reader
func NewJSONLReader() *JSONLReader {
	return &JSONLReader{}
}

type jsonlLine struct {
	ID          json.RawMessage `json:"id"`
	Description string          `json:"description"`
	Text        string          `json:"text"`
}

// Name returns the reader name
func (j *JSONLReader) Name() string { return "jsonl" }

// CanHandle accepts .jsonl and .ndjson files
func (j *JSONLReader) CanHandle(path string) bool {
	return hasExt(path, ".jsonl", ".ndjson")
}

// Read parses each non-blank line; description wins over text
func (j *JSONLReader) Read(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var records []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var l jsonlLine
		if err := json.Unmarshal([]byte(line), &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		text := l.Description
		if text == "" {
			text = l.Text
		}
		records = appendClean(records, rawID(l.ID, lineNo), text)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan jsonl: %w", err)
	}
	return records, nil
}

// rawID accepts string or numeric ids
func rawID(raw json.RawMessage, lineNo int) string {
	if len(raw) == 0 || string(raw) == "null" {
		return strconv.Itoa(lineNo)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
