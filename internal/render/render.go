// Package render writes extracted cases as JSON, JSONL or CSV.
package render

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/petty/internal/model"
)

// Output formats
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)

// ErrUnknownFormat is returned for an unsupported output format
var ErrUnknownFormat = errors.New("unknown output format")

// Item is one record's outcome
type Item struct {
	ID    string      `json:"id"`
	Case  *model.Case `json:"case,omitempty"`
	Error string      `json:"error,omitempty"`
}

// NewItem builds an item. A case without defendants carries the
// no-defendants error alongside the partial case.
func NewItem(id string, c *model.Case, err error) Item {
	item := Item{ID: id, Case: c}
	switch {
	case err != nil:
		item.Error = err.Error()
	case !c.Parsed():
		item.Error = model.ErrNoDefendants.Error()
	}
	return item
}

// Envelope wraps a batch run for JSON output
type Envelope struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Summary     Summary   `json:"summary"`
	Cases       []Item    `json:"cases"`
}

// NewEnvelope stamps items with a run ID and the current time
func NewEnvelope(runID string, items []Item) Envelope {
	if items == nil {
		items = []Item{}
	}
	return Envelope{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Summary:     Summarize(items),
		Cases:       items,
	}
}

// Write renders env in the given format
func Write(w io.Writer, format string, env Envelope) error {
	switch format {
	case FormatJSON, "":
		return JSON(w, env)
	case FormatJSONL:
		return JSONL(w, env.Cases)
	case FormatCSV:
		return CSV(w, env.Cases)
	default:
		return fmt.Errorf("%w: %q (supported: json, jsonl, csv)", ErrUnknownFormat, format)
	}
}

// JSON writes the envelope as indented JSON
func JSON(w io.Writer, env Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// JSONL writes one compact item per line
func JSONL(w io.Writer, items []Item) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encode item %s: %w", item.ID, err)
		}
	}
	return nil
}

// CSVHeader lists the CSV columns; there is one row per defendant
var CSVHeader = []string{
	"id", "date", "offence", "offence_location", "court", "division",
	"forenames", "surname", "residence", "occupation", "gender", "error",
}

// CSV writes one row per defendant. A record without defendants, or one that
// failed, still gets a single row with empty person columns.
func CSV(w io.Writer, items []Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, item := range items {
		for _, row := range csvRows(item) {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row %s: %w", item.ID, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRows(item Item) [][]string {
	c := item.Case
	if c == nil {
		c = &model.Case{}
	}
	caseCols := []string{item.ID, c.Date, c.Offence, c.OffenceLocation, c.Court, c.Division}

	if len(c.Defendants) == 0 {
		row := append(append([]string(nil), caseCols...), "", "", "", "", "", item.Error)
		return [][]string{row}
	}

	rows := make([][]string, 0, len(c.Defendants))
	for _, d := range c.Defendants {
		row := append(append([]string(nil), caseCols...),
			d.Forenames, d.Surname, d.Residence, d.Occupation, string(d.Gender), item.Error)
		rows = append(rows, row)
	}
	return rows
}

// Summary counts the outcomes of a run
type Summary struct {
	Records      int `json:"records"`
	Succeeded    int `json:"succeeded"`
	NoDefendants int `json:"no_defendants"`
	Errors       int `json:"errors"`
	Defendants   int `json:"defendants"`
}

// Summarize counts items by outcome
func Summarize(items []Item) Summary {
	s := Summary{Records: len(items)}
	for _, item := range items {
		switch {
		case item.Case == nil:
			s.Errors++
		case !item.Case.Parsed():
			s.NoDefendants++
		default:
			s.Succeeded++
			s.Defendants += len(item.Case.Defendants)
		}
	}
	return s
}

// Failed returns the number of records that need review
func (s Summary) Failed() int {
	return s.NoDefendants + s.Errors
}
