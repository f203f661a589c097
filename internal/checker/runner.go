// Package checker implements the resumable backlink verification engine.
// It checks, in bounded batches driven by a timer, that each recorded
// source page is still reachable and still links to its target page,
// classifying every record as live, missing or unknown.
package checker

import (
	"context"
	"log/slog"
	"time"
)

// Runner processes one contiguous row range per invocation. Records are
// handled strictly sequentially; a failure on one record is written down
// and the loop proceeds to the next row.
type Runner struct {
	fetcher Fetcher
	matcher LinkMatcher
	store   DatasetStore
	queue   FailureQueue
	limiter *HostLimiter

	// looseLimit caps the URLs reported by the target-400 fallback scan.
	looseLimit int
}

// NewRunner wires a batch runner from its collaborators.
func NewRunner(fetcher Fetcher, matcher LinkMatcher, store DatasetStore, queue FailureQueue, limiter *HostLimiter, looseLimit int) *Runner {
	if looseLimit <= 0 {
		looseLimit = 5
	}
	return &Runner{
		fetcher:    fetcher,
		matcher:    matcher,
		store:      store,
		queue:      queue,
		limiter:    limiter,
		looseLimit: looseLimit,
	}
}

// ProcessBatch checks every record in [startRow, endRow] (inclusive,
// 1-based, header row excluded by contract). Rows with an empty source URL
// are skipped without writing a status or touching the queue. The single
// checkedAt timestamp is applied to every record of the batch.
func (r *Runner) ProcessBatch(ctx context.Context, dataset string, startRow, endRow int, checkedAt time.Time) error {
	records, err := r.store.ReadRecords(dataset, startRow, endRow)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if rec.SourceURL == "" {
			continue
		}

		out := r.checkRecord(ctx, rec)

		if err := r.store.WriteResult(dataset, rec.Row, out, checkedAt); err != nil {
			slog.Error("Failed to write result", "dataset", dataset, "row", rec.Row, "error", err)
			continue
		}

		if out.Status == StatusMissing {
			fc := FailedCheck{
				SourceURL: rec.SourceURL,
				TargetURL: rec.TargetURL,
				CheckedAt: checkedAt,
				Remark:    out.Remark,
			}
			if err := r.queue.Enqueue(fc); err != nil {
				slog.Error("Failed to enqueue failed check", "dataset", dataset, "row", rec.Row, "error", err)
			}
		}

		slog.Debug("Checked record", "dataset", dataset, "row", rec.Row, "status", out.Status, "remark", out.Remark)
	}

	slog.Info("Processed batch", "dataset", dataset, "start_row", startRow, "end_row", endRow, "records", len(records))
	return nil
}

// checkRecord gathers evidence for one record: fetch the source, then the
// target, then search the source body. The two fetches are sequential and
// blocking.
func (r *Runner) checkRecord(ctx context.Context, rec Record) Outcome {
	var ev Evidence

	r.wait(ctx, rec.SourceURL)
	ev.Source, ev.SourceErr = r.fetcher.Fetch(ctx, rec.SourceURL)
	if ev.SourceErr != nil || ev.Source.StatusCode != 200 {
		return Classify(ev)
	}

	r.wait(ctx, rec.TargetURL)
	ev.Target, ev.TargetErr = r.fetcher.Fetch(ctx, rec.TargetURL)
	if ev.TargetErr != nil {
		return Classify(ev)
	}

	switch {
	case ev.Target.StatusCode == 400:
		fb := MatchResult{LooseURLs: LooseScan(ev.Source.Body, rec.TargetURL, r.looseLimit)}
		if len(fb.LooseURLs) > 0 {
			fb.Kind = MatchLoose
		}
		ev.Fallback = &fb
	case ev.Target.StatusCode == 200:
		m := r.matcher.Match(ev.Source.Body, rec.TargetURL)
		ev.Match = &m
	}

	return Classify(ev)
}

// wait applies per-host politeness throttling; a nil limiter disables it.
func (r *Runner) wait(ctx context.Context, url string) {
	if r.limiter == nil {
		return
	}
	if err := r.limiter.Wait(ctx, url); err != nil {
		slog.Warn("Rate limiter wait interrupted", "url", url, "error", err)
	}
}
