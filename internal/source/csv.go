package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVReader reads one record per row from a named description column
type CSVReader struct {
	opts Options
}

// NewCSVReader creates a CSV reader; an empty Column means "description"
func NewCSVReader(opts Options) *CSVReader {
	if opts.Column == "" {
		opts.Column = "description"
	}
	return &CSVReader{opts: opts}
}

// Name returns the reader name
func (c *CSVReader) Name() string { return "csv" }

// CanHandle accepts .csv files
func (c *CSVReader) CanHandle(path string) bool {
	return hasExt(path, ".csv")
}

// Read parses rows, skipping those filtered out by the title prefix
func (c *CSVReader) Read(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	textCol, ok := index[strings.ToLower(c.opts.Column)]
	if !ok {
		return nil, fmt.Errorf("csv has no %q column", c.opts.Column)
	}
	idCol, hasID := index[strings.ToLower(c.opts.IDColumn)]
	titleCol, hasTitle := index[strings.ToLower(c.opts.TitleColumn)]
	filter := hasTitle && c.opts.TitleColumn != "" && c.opts.TitlePrefix != ""

	var records []Record
	row := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv row %d: %w", row+2, err)
		}
		row++

		if filter && !strings.HasPrefix(strings.TrimSpace(field(fields, titleCol)), c.opts.TitlePrefix) {
			continue
		}

		id := strconv.Itoa(row)
		if hasID && c.opts.IDColumn != "" {
			if v := strings.TrimSpace(field(fields, idCol)); v != "" {
				id = v
			}
		}
		records = appendClean(records, id, field(fields, textCol))
	}

	return records, nil
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}
