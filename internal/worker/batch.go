package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/petty/internal/model"
	"github.com/ppiankov/petty/internal/source"
)

// ErrRecordTimeout is reported for a record that exceeded its own deadline
var ErrRecordTimeout = errors.New("record timed out")

// Extractor turns one record's text into a case
type Extractor interface {
	Extract(ctx context.Context, text string) (*model.Case, error)
}

// RecordJob extracts a single record
type RecordJob struct {
	Index     int
	Record    source.Record
	Extractor Extractor
	Timeout   time.Duration
}

type extractOutcome struct {
	c   *model.Case
	err error
}

// Execute runs the extraction under the record's own deadline. A hung
// extraction is abandoned; its goroutine finishes on its own and its result
// is discarded.
func (j *RecordJob) Execute(ctx context.Context) Result {
	start := time.Now()
	result := &RecordResult{Index: j.Index, Record: j.Record}
	parent := ctx

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	done := make(chan extractOutcome, 1)
	go func() {
		c, err := j.Extractor.Extract(ctx, j.Record.Text)
		done <- extractOutcome{c: c, err: err}
	}()

	select {
	case out := <-done:
		result.Case, result.Err = out.c, out.err
	case <-ctx.Done():
		result.Err = ctx.Err()
	}

	// the batch deadline is reported as is; only the record's own is relabelled
	if errors.Is(result.Err, context.DeadlineExceeded) && j.Timeout > 0 && parent.Err() == nil {
		result.Err = fmt.Errorf("%w after %v", ErrRecordTimeout, j.Timeout)
	}
	result.Duration = time.Since(start)
	return result
}

// RecordResult is the outcome of one record
type RecordResult struct {
	Index    int
	Record   source.Record
	Case     *model.Case
	Err      error
	Duration time.Duration
}

// GetError returns the infrastructure error, if any
func (r *RecordResult) GetError() error {
	return r.Err
}

// Failed reports an error or a case without defendants
func (r *RecordResult) Failed() bool {
	return r.Err != nil || !r.Case.Parsed()
}

// BatchProcessor extracts many records concurrently
type BatchProcessor struct {
	extractor     Extractor
	workers       int
	recordTimeout time.Duration
}

// NewBatchProcessor creates a processor; recordTimeout 0 disables per-record deadlines
func NewBatchProcessor(extractor Extractor, workers int, recordTimeout time.Duration) *BatchProcessor {
	return &BatchProcessor{
		extractor:     extractor,
		workers:       workers,
		recordTimeout: recordTimeout,
	}
}

// ProcessRecords extracts every record and returns results in input order.
// Records never reached because ctx ended carry ctx's error.
func (b *BatchProcessor) ProcessRecords(ctx context.Context, records []source.Record) []*RecordResult {
	if len(records) == 0 {
		return []*RecordResult{}
	}

	pool := NewPool(ctx, b.workers)
	pool.Start()

	// Submit from a separate goroutine so a full queue never blocks result draining
	go func() {
		for i, rec := range records {
			job := &RecordJob{
				Index:     i,
				Record:    rec,
				Extractor: b.extractor,
				Timeout:   b.recordTimeout,
			}
			if !pool.Submit(job) {
				break
			}
		}
		pool.Close()
	}()

	ordered := make([]*RecordResult, len(records))
	for _, r := range pool.Collect() {
		rr := r.(*RecordResult)
		ordered[rr.Index] = rr
	}

	for i, rr := range ordered {
		if rr == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &RecordResult{Index: i, Record: records[i], Err: err}
		}
	}
	return ordered
}

// ProcessFile reads records with the registry and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, registry *source.Registry, path string) ([]*RecordResult, error) {
	records, err := registry.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	return b.ProcessRecords(ctx, records), nil
}
