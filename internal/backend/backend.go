// Package backend defines the storage contract a Cursor and Updater depend
// on: a Responder walks a point's committed history in the order a query
// demands, and a Writer commits new values, deletions, and purges. Concrete
// implementations live in memstore (the default, in-process backend) and
// pgstore (an optional pgx-backed durable backend).
package backend

import (
	"context"

	"github.com/pvcore/pointstore/internal/value"
)

// Responder walks one point's stored values in the direction a query has
// already fixed: ascending by (stamp, version) for FORWARD/MULTIPLE queries,
// descending by (stamp, version) for REVERSE. The memstore and pgstore
// implementations walk in this (stamp, version) order whatever pull value
// Store.Responder is given; a PULL walk is not ordered by version alone and
// resumes from the last delivered version only through Reset's minVersion
// filter. Reset repositions the walk at a cursor (nil means
// the natural start/end for the configured direction); Next advances and
// returns the next value, or ok=false when exhausted.
type Responder interface {
	// Reset repositions the walk over the half-open [after, before) stamp
	// range (either bound nil means unbounded on that side), excluding any
	// version below minVersion (used by PULL queries resuming from the
	// last delivered version).
	Reset(ctx context.Context, after, before *value.Stamp, minVersion value.Version) error

	// Next returns the next value in the walk's order, or ok=false once
	// the point's values (within the query's interval) are exhausted.
	Next(ctx context.Context) (v value.VersionedValue, ok bool, err error)

	// Count returns the number of values the walk would yield without
	// consuming it — used for COUNT queries, which never materialize rows.
	Count(ctx context.Context) (uint64, error)

	// Limit reports the backend's own hard cap on rows returned from a
	// single Reset/Next sequence, after which the Cursor must re-scope and
	// re-open a fresh Responder (spec.md §4.2's backend_limit). Zero means
	// the backend imposes no limit beyond the query's own.
	Limit() int

	// Close releases resources (an open transaction, a result cursor)
	// associated with this walk.
	Close(ctx context.Context) error
}

// Writer applies committed mutations to one point's history. Delete marks a
// version as logically removed (a Deleted tombstone) without erasing it;
// Purge physically removes rows at or before a retention boundary. Commit
// finalizes a batch — implementations that buffer writes until Commit must
// make every prior Insert/Delete/Purge in the batch visible to Responders
// atomically at that point.
type Writer interface {
	// Insert appends a new versioned value for a point. Inserting over an
	// existing (point, stamp) pair creates a new version rather than
	// overwriting; last-version-wins is a Responder/query concern, not a
	// Writer one.
	Insert(ctx context.Context, pv value.VersionedValue) error

	// Delete marks the (point, stamp) pair as a tombstone at the given
	// version, preserving prior versions for history queries.
	Delete(ctx context.Context, d value.Deleted) error

	// Purge physically removes every version of a point at or before
	// upTo, including tombstones. It is irreversible.
	Purge(ctx context.Context, point value.PointUUID, upTo value.Stamp) (removed uint64, err error)

	// Commit finalizes the batch of Insert/Delete/Purge calls made since
	// the Writer was obtained, making them atomically visible.
	Commit(ctx context.Context) error

	// Rollback discards the batch. Calling it after a successful Commit is
	// a no-op.
	Rollback(ctx context.Context) error
}

// Store opens Responders and Writers scoped to a single point. Backends that
// pool connections (pgstore) or index in-memory maps (memstore) implement
// this as their top-level entry point.
type Store interface {
	// Responder opens a read-only walk over point's history.
	Responder(ctx context.Context, point value.PointUUID, reverse bool, pull bool) (Responder, error)

	// Writer opens a batch writer for point. Callers must Commit or
	// Rollback before discarding it.
	Writer(ctx context.Context, point value.PointUUID) (Writer, error)

	// Close releases all resources held by the store (connection pools,
	// background compaction).
	Close(ctx context.Context) error
}
