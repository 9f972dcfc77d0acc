package memstore

import (
	"context"

	"github.com/pvcore/pointstore/internal/value"
)

// writer buffers Insert/Delete/Purge calls and applies them to the pointLog
// only on Commit, so concurrent Responders never observe a partial batch.
type writer struct {
	log     *pointLog
	pending []row
	purgeTo *value.Stamp
	done    bool
}

// Insert buffers a new versioned value.
func (w *writer) Insert(ctx context.Context, pv value.VersionedValue) error {
	w.pending = append(w.pending, row{VersionedValue: pv})
	return nil
}

// Delete buffers a tombstone at d's version.
func (w *writer) Delete(ctx context.Context, d value.Deleted) error {
	w.pending = append(w.pending, row{VersionedValue: d.VersionedValue})
	return nil
}

// Purge buffers a retention boundary; the physical removal happens at
// Commit so its effect stays atomic with any Insert/Delete in the same
// batch.
func (w *writer) Purge(ctx context.Context, point value.PointUUID, upTo value.Stamp) (uint64, error) {
	w.purgeTo = &upTo
	w.log.mu.RLock()
	var n uint64
	for _, r := range w.log.rows {
		if r.Stamp <= upTo {
			n++
		}
	}
	w.log.mu.RUnlock()
	return n, nil
}

// Commit applies every buffered Insert/Delete, then the purge boundary if
// one was requested, atomically under the log's write lock.
func (w *writer) Commit(ctx context.Context) error {
	if w.done {
		return nil
	}
	w.log.mu.Lock()
	defer w.log.mu.Unlock()

	for _, r := range w.pending {
		w.log.insertLocked(r)
	}
	if w.purgeTo != nil {
		kept := w.log.rows[:0]
		for _, r := range w.log.rows {
			if r.Stamp > *w.purgeTo {
				kept = append(kept, r)
			}
		}
		w.log.rows = kept
	}
	w.pending = nil
	w.done = true
	return nil
}

// Rollback discards the buffered batch without touching the log.
func (w *writer) Rollback(ctx context.Context) error {
	w.pending = nil
	w.purgeTo = nil
	w.done = true
	return nil
}
