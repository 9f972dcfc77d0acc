package memstore

import (
	"context"

	"github.com/pvcore/pointstore/internal/value"
)

// responder walks a pointLog's snapshot taken at Reset time. Concurrent
// writers committing after Reset are not visible to an in-flight walk,
// matching a Writer's Commit-is-atomic-per-batch contract.
type responder struct {
	log     *pointLog
	reverse bool
	limit   int

	snapshot []row
	pos      int
	served   int
}

// Reset repositions the walk over [after, before). minVersion excludes any
// version strictly below it (used by PULL queries resuming from the last
// delivered version).
func (r *responder) Reset(ctx context.Context, after, before *value.Stamp, minVersion value.Version) error {
	r.log.mu.RLock()
	all := append([]row(nil), r.log.rows...)
	r.log.mu.RUnlock()

	r.snapshot = r.snapshot[:0]
	for _, rw := range all {
		if after != nil && rw.Stamp < *after {
			continue
		}
		if before != nil && rw.Stamp >= *before {
			continue
		}
		if minVersion > 0 && rw.Version < minVersion {
			continue
		}
		r.snapshot = append(r.snapshot, rw)
	}

	if r.reverse {
		r.pos = len(r.snapshot) - 1
	} else {
		r.pos = 0
	}
	r.served = 0
	return nil
}

// Next returns the snapshot's next row in the walk's configured direction.
func (r *responder) Next(ctx context.Context) (value.VersionedValue, bool, error) {
	if r.limit > 0 && r.served >= r.limit {
		return value.VersionedValue{}, false, nil
	}
	if r.reverse {
		if r.pos < 0 {
			return value.VersionedValue{}, false, nil
		}
		v := r.snapshot[r.pos]
		r.pos--
		r.served++
		return v.VersionedValue, true, nil
	}
	if r.pos >= len(r.snapshot) {
		return value.VersionedValue{}, false, nil
	}
	v := r.snapshot[r.pos]
	r.pos++
	r.served++
	return v.VersionedValue, true, nil
}

// Count reports the walk's remaining snapshot size without consuming it.
func (r *responder) Count(ctx context.Context) (uint64, error) {
	if r.reverse {
		if r.pos < 0 {
			return 0, nil
		}
		return uint64(r.pos + 1), nil
	}
	if r.pos >= len(r.snapshot) {
		return 0, nil
	}
	return uint64(len(r.snapshot) - r.pos), nil
}

// Limit reports the configured per-walk row cap.
func (r *responder) Limit() int { return r.limit }

// Close releases the walk's snapshot.
func (r *responder) Close(ctx context.Context) error {
	r.snapshot = nil
	return nil
}
