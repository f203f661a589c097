package checker

import (
	"context"
	"time"
)

// Fetcher performs a single HTTP GET. A non-2xx response is a normal
// FetchResult, not an error; errors are transport-level only.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// LinkMatcher decides whether a page body contains a link to the target URL.
// Implementations must be pure: the same (body, target) pair always yields
// the same result.
type LinkMatcher interface {
	Match(body, targetURL string) MatchResult
}

// DatasetStore is the tabular store holding verification records, addressed
// by dataset name and 1-based row number (row 1 is the header).
type DatasetStore interface {
	ListDatasets() ([]string, error)
	DatasetExists(name string) (bool, error)

	// LastDataRow returns the row number of the last record with a
	// non-empty source URL, counting from row 2. Trailing empty rows do
	// not extend it. Returns 1 for a dataset with no data rows.
	LastDataRow(name string) (int, error)

	ReadRecords(name string, startRow, endRow int) ([]Record, error)
	WriteResult(name string, row int, out Outcome, checkedAt time.Time) error
}

// StateStore persists ProgressState across invocations. LoadProgress must
// return safe fresh-cycle defaults when nothing is stored or the stored
// value cannot be decoded.
type StateStore interface {
	LoadProgress() (ProgressState, error)
	SaveProgress(ProgressState) error
	ClearProgress() error
}

// FailureQueue is the append-only sink for records that failed verification.
type FailureQueue interface {
	Enqueue(FailedCheck) error
}

// BatchProcessor runs the per-record checks for one contiguous row range.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, dataset string, startRow, endRow int, checkedAt time.Time) error
}
