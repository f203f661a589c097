package checker

import (
	"context"
	"log/slog"
	"time"
)

// Tracker drives a verification cycle across datasets and ticks. It holds
// no hidden state between calls: everything needed to resume lives in the
// injected StateStore, so the engine can run as a stateless, time-sliced
// process.
type Tracker struct {
	store     DatasetStore
	state     StateStore
	runner    BatchProcessor
	batchSize int
	now       func() time.Time
}

// firstDataRow is the cursor value after every reset: row 1 is the header
// and is never processed.
const firstDataRow = 2

// NewTracker creates a tracker with the given batch size per tick.
func NewTracker(store DatasetStore, state StateStore, runner BatchProcessor, batchSize int) *Tracker {
	if batchSize <= 0 {
		batchSize = 250
	}
	return &Tracker{
		store:     store,
		state:     state,
		runner:    runner,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// StartCycle (re-)initializes the persisted progress for a fresh cycle over
// the given dataset list. Idempotent: starting an already-started cycle
// simply rewinds it.
func (t *Tracker) StartCycle(datasets []string) error {
	st := ProgressState{
		DatasetNames: datasets,
		DatasetIndex: 0,
		Row:          firstDataRow,
	}
	if err := t.state.SaveProgress(st); err != nil {
		return err
	}
	slog.Info("Started verification cycle", "datasets", len(datasets))
	return nil
}

// EnsureCycle resumes an in-progress cycle when one is persisted, and
// starts a fresh cycle over datasets otherwise. Absent or corrupt state
// counts as no cycle in progress.
func (t *Tracker) EnsureCycle(datasets []string) error {
	st, err := t.state.LoadProgress()
	if err != nil {
		return err
	}
	if len(st.DatasetNames) > 0 && st.DatasetIndex < len(st.DatasetNames) {
		slog.Info("Resuming verification cycle",
			"dataset_index", st.DatasetIndex, "row", st.Row, "datasets", len(st.DatasetNames))
		return nil
	}
	return t.StartCycle(datasets)
}

// Tick processes at most one batch and advances the persisted cursor.
// It returns done=true once the dataset list is exhausted; the caller is
// expected to cancel its recurring ticks at that point, making the cycle
// self-terminating.
func (t *Tracker) Tick(ctx context.Context) (done bool, err error) {
	st, err := t.state.LoadProgress()
	if err != nil {
		return false, err
	}

	if st.DatasetIndex >= len(st.DatasetNames) {
		slog.Info("Verification cycle complete")
		return true, nil
	}

	name := st.DatasetNames[st.DatasetIndex]

	exists, err := t.store.DatasetExists(name)
	if err != nil {
		return false, err
	}
	if !exists {
		slog.Warn("Dataset not found, skipping", "dataset", name)
		return false, t.advanceDataset(&st)
	}

	lastRow, err := t.store.LastDataRow(name)
	if err != nil {
		return false, err
	}
	if lastRow < st.Row {
		// Nothing (left) to process in this dataset.
		return false, t.advanceDataset(&st)
	}

	endRow := st.Row + t.batchSize - 1
	if endRow > lastRow {
		endRow = lastRow
	}

	if err := t.runner.ProcessBatch(ctx, name, st.Row, endRow, t.now().UTC()); err != nil {
		return false, err
	}

	if endRow >= lastRow {
		return false, t.advanceDataset(&st)
	}

	st.Row = endRow + 1
	return false, t.state.SaveProgress(st)
}

// advanceDataset moves the cursor to the start of the next dataset.
// The row always resets when the dataset index changes.
func (t *Tracker) advanceDataset(st *ProgressState) error {
	st.DatasetIndex++
	st.Row = firstDataRow
	return t.state.SaveProgress(*st)
}
