package checker

import (
	"context"
	"testing"
	"time"
)

// fakeState keeps ProgressState in memory.
type fakeState struct {
	st    ProgressState
	saves int
}

func newFakeState() *fakeState {
	return &fakeState{st: ProgressState{Row: 2}}
}

func (s *fakeState) LoadProgress() (ProgressState, error) { return s.st, nil }

func (s *fakeState) SaveProgress(st ProgressState) error {
	s.st = st
	s.saves++
	return nil
}

func (s *fakeState) ClearProgress() error {
	s.st = ProgressState{Row: 2}
	return nil
}

// recordingProcessor captures batch invocations instead of fetching.
type recordingProcessor struct {
	batches []batchCall
}

type batchCall struct {
	dataset  string
	startRow int
	endRow   int
}

func (p *recordingProcessor) ProcessBatch(_ context.Context, dataset string, startRow, endRow int, _ time.Time) error {
	p.batches = append(p.batches, batchCall{dataset, startRow, endRow})
	return nil
}

func storeWithRows(dataset string, populated int) *fakeStore {
	store := newFakeStore()
	var records []Record
	for row := 2; row < 2+populated; row++ {
		records = append(records, Record{Row: row, SourceURL: "https://source.example/p", TargetURL: "https://target.example/"})
	}
	store.records[dataset] = records
	return store
}

func TestTrackerSplitsIntoBatches(t *testing.T) {
	store := storeWithRows("ds", 10) // rows 2..11
	state := newFakeState()
	proc := &recordingProcessor{}
	tracker := NewTracker(store, state, proc, 4)

	if err := tracker.StartCycle([]string{"ds"}); err != nil {
		t.Fatalf("StartCycle failed: %v", err)
	}

	ctx := context.Background()
	var doneAt int
	for i := 1; i <= 10; i++ {
		done, err := tracker.Tick(ctx)
		if err != nil {
			t.Fatalf("Tick %d failed: %v", i, err)
		}
		if done {
			doneAt = i
			break
		}
	}

	// Three batches cover rows 2..11, then one more tick reports done.
	want := []batchCall{
		{"ds", 2, 5},
		{"ds", 6, 9},
		{"ds", 10, 11},
	}
	if len(proc.batches) != len(want) {
		t.Fatalf("Expected %d batches, got %d: %+v", len(want), len(proc.batches), proc.batches)
	}
	for i, b := range proc.batches {
		if b != want[i] {
			t.Errorf("Batch %d = %+v, want %+v", i, b, want[i])
		}
	}
	if doneAt != 4 {
		t.Errorf("Expected done on tick 4, got tick %d", doneAt)
	}

	// Split batches concatenate to exactly [2, lastDataRow] with no gaps
	// or overlaps: resuming is equivalent to one full pass.
	next := 2
	for _, b := range proc.batches {
		if b.startRow != next {
			t.Errorf("Batch starts at %d, expected %d", b.startRow, next)
		}
		next = b.endRow + 1
	}
	if next != 12 {
		t.Errorf("Batches end at %d, expected 12", next)
	}
}

func TestTrackerResumesFromPersistedState(t *testing.T) {
	store := storeWithRows("ds", 10)
	state := newFakeState()

	// First invocation processes one batch and is discarded, simulating a
	// stateless time-sliced run.
	first := &recordingProcessor{}
	tracker := NewTracker(store, state, first, 4)
	if err := tracker.StartCycle([]string{"ds"}); err != nil {
		t.Fatalf("StartCycle failed: %v", err)
	}
	if _, err := tracker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	// A fresh tracker over the same state store picks up where it left off.
	second := &recordingProcessor{}
	resumed := NewTracker(store, state, second, 4)
	if _, err := resumed.Tick(context.Background()); err != nil {
		t.Fatalf("Resumed tick failed: %v", err)
	}

	if len(second.batches) != 1 || second.batches[0].startRow != 6 {
		t.Errorf("Resumed batch = %+v, want start at row 6", second.batches)
	}
}

func TestTrackerSkipsMissingDataset(t *testing.T) {
	store := storeWithRows("real", 3)
	state := newFakeState()
	proc := &recordingProcessor{}
	tracker := NewTracker(store, state, proc, 250)

	if err := tracker.StartCycle([]string{"ghost", "real"}); err != nil {
		t.Fatalf("StartCycle failed: %v", err)
	}

	ctx := context.Background()

	// First tick skips the unknown dataset without processing anything.
	if done, err := tracker.Tick(ctx); err != nil || done {
		t.Fatalf("Tick over missing dataset: done=%v err=%v", done, err)
	}
	if len(proc.batches) != 0 {
		t.Fatalf("Missing dataset must not be processed: %+v", proc.batches)
	}
	if state.st.DatasetIndex != 1 || state.st.Row != 2 {
		t.Errorf("Row must reset on dataset advance, state = %+v", state.st)
	}

	// Second tick processes the real dataset.
	if _, err := tracker.Tick(ctx); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if len(proc.batches) != 1 || proc.batches[0].dataset != "real" {
		t.Errorf("Expected one batch over 'real', got %+v", proc.batches)
	}
}

func TestTrackerEmptyDatasetAdvances(t *testing.T) {
	store := newFakeStore()
	store.records["empty"] = nil // exists, no data rows
	store.records["full"] = []Record{{Row: 2, SourceURL: "https://s.example/", TargetURL: "https://t.example/"}}
	state := newFakeState()
	proc := &recordingProcessor{}
	tracker := NewTracker(store, state, proc, 250)

	if err := tracker.StartCycle([]string{"empty", "full"}); err != nil {
		t.Fatalf("StartCycle failed: %v", err)
	}

	ctx := context.Background()
	if _, err := tracker.Tick(ctx); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if len(proc.batches) != 0 {
		t.Fatalf("Empty dataset must not be processed: %+v", proc.batches)
	}

	if _, err := tracker.Tick(ctx); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if len(proc.batches) != 1 || proc.batches[0].dataset != "full" {
		t.Errorf("Expected one batch over 'full', got %+v", proc.batches)
	}
}

func TestTrackerDoneTicksAreNoOps(t *testing.T) {
	store := storeWithRows("ds", 1)
	state := newFakeState()
	proc := &recordingProcessor{}
	tracker := NewTracker(store, state, proc, 250)

	if err := tracker.StartCycle([]string{"ds"}); err != nil {
		t.Fatalf("StartCycle failed: %v", err)
	}

	ctx := context.Background()
	if done, _ := tracker.Tick(ctx); done {
		t.Fatalf("First tick should process the only batch")
	}

	for i := 0; i < 3; i++ {
		done, err := tracker.Tick(ctx)
		if err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		if !done {
			t.Errorf("Tick after exhaustion must report done")
		}
	}
	if len(proc.batches) != 1 {
		t.Errorf("Done ticks must not process batches, got %d", len(proc.batches))
	}
}

func TestTrackerLastDataRowIgnoresTrailingEmptyRows(t *testing.T) {
	store := newFakeStore()
	var records []Record
	for row := 2; row <= 5; row++ {
		records = append(records, Record{Row: row, SourceURL: "https://s.example/", TargetURL: "https://t.example/"})
	}
	for row := 6; row <= 10; row++ {
		records = append(records, Record{Row: row}) // trailing empty source cells
	}
	store.records["ds"] = records

	last, err := store.LastDataRow("ds")
	if err != nil {
		t.Fatalf("LastDataRow failed: %v", err)
	}
	if last != 5 {
		t.Fatalf("LastDataRow = %d, want 5", last)
	}

	state := newFakeState()
	proc := &recordingProcessor{}
	tracker := NewTracker(store, state, proc, 250)
	if err := tracker.StartCycle([]string{"ds"}); err != nil {
		t.Fatalf("StartCycle failed: %v", err)
	}
	if _, err := tracker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if len(proc.batches) != 1 || proc.batches[0].endRow != 5 {
		t.Errorf("Batch must stop at row 5, got %+v", proc.batches)
	}
}

func TestTrackerEnsureCycle(t *testing.T) {
	store := storeWithRows("ds", 10)
	state := newFakeState()
	proc := &recordingProcessor{}
	tracker := NewTracker(store, state, proc, 4)

	// No cycle persisted: EnsureCycle starts one.
	if err := tracker.EnsureCycle([]string{"ds"}); err != nil {
		t.Fatalf("EnsureCycle failed: %v", err)
	}
	if _, err := tracker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	// Cycle in progress: EnsureCycle must not rewind it.
	if err := tracker.EnsureCycle([]string{"ds"}); err != nil {
		t.Fatalf("EnsureCycle failed: %v", err)
	}
	if state.st.Row != 6 {
		t.Errorf("EnsureCycle rewound the cursor: state = %+v", state.st)
	}
}
