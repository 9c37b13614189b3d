// Package checkin implements the dose check-in batch executor and the
// stateful orchestrator that drives the routine check-in workflow.
package checkin

import (
	"context"
	"log/slog"
	"sync"

	"github.com/medeasy-app/routinecore/internal/routineapi"
)

// ItemResult is the outcome of one dose check-in within a batch.
type ItemResult struct {
	DoseID int64
	OK     bool
	Err    error
}

// BatchResult aggregates per-dose outcomes, in input order.
type BatchResult struct {
	Items []ItemResult
}

// AllSucceeded reports whether every check-in in the batch succeeded.
// An empty batch counts as succeeded.
func (r BatchResult) AllSucceeded() bool {
	for _, item := range r.Items {
		if !item.OK {
			return false
		}
	}
	return true
}

// Counts returns the number of succeeded and failed items.
func (r BatchResult) Counts() (ok, failed int) {
	for _, item := range r.Items {
		if item.OK {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// BatchExecutor issues independent check-in requests for a set of doses.
type BatchExecutor struct {
	client routineapi.Client
}

// NewBatchExecutor creates an executor backed by the routine service client.
func NewBatchExecutor(client routineapi.Client) *BatchExecutor {
	return &BatchExecutor{client: client}
}

// CheckinAll marks every dose taken, one independent request per id, issued
// concurrently. Failures are reported per item and never compensated: a dose
// the backend already marked taken stays taken regardless of what happens to
// its siblings in the batch.
func (e *BatchExecutor) CheckinAll(ctx context.Context, doseIDs []int64) BatchResult {
	result := BatchResult{Items: make([]ItemResult, len(doseIDs))}
	var wg sync.WaitGroup
	for i, id := range doseIDs {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			err := e.client.SetDoseTaken(ctx, id, true)
			result.Items[i] = ItemResult{DoseID: id, OK: err == nil, Err: err}
			if err != nil {
				slog.Warn("checkin.BatchExecutor: dose check-in failed", "error", err, "doseID", id)
			}
		}(i, id)
	}
	wg.Wait()

	ok, failed := result.Counts()
	slog.Debug("checkin.BatchExecutor: batch finished", "total", len(doseIDs), "ok", ok, "failed", failed)
	return result
}
