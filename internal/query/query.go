package query

import (
	"math"
	"time"

	"github.com/pvcore/pointstore/internal/value"
)

// StoreValuesQuery is the immutable, normalized query a Cursor consumes.
// All fields are immutable once built; construct one via Builder.Build.
type StoreValuesQuery struct {
	Point       PointHandle
	PointUUID   *value.PointUUID
	Interval    Interval
	Sync        Sync
	rows        int
	Limit       int
	PolatorTimeLimit time.Duration
	Flags       Flags
	Cancelled   bool
}

// MaxRows is the sentinel "unbounded rows" value returned by Rows() when the
// query has no fixed row target.
const MaxRows = math.MaxInt32

// HasPoint reports whether the query names a point, resolved or by UUID.
func (q *StoreValuesQuery) HasPoint() bool {
	return q.Point != nil || q.PointUUID != nil
}

// PointID returns the query's point identifier, preferring the resolved
// handle's UUID when present.
func (q *StoreValuesQuery) PointID() (value.PointUUID, bool) {
	if q.Point != nil {
		return q.Point.UUID(), true
	}
	if q.PointUUID != nil {
		return *q.PointUUID, true
	}
	return value.PointUUID{}, false
}

// Rows implements getRows(): rows when ROWS is set, 1 when MULTIPLE is
// clear, else MaxRows.
func (q *StoreValuesQuery) Rows() int {
	if q.Flags.Has(Rows) {
		return q.rows
	}
	if !q.Flags.Has(Multiple) {
		return 1
	}
	return MaxRows
}

// IsFixed implements isFixed(): true when rows is deterministic (bounded,
// not MaxRows) and VALUE/SYNCED are not set.
func (q *StoreValuesQuery) IsFixed() bool {
	if q.Rows() >= MaxRows {
		return false
	}
	return !q.Flags.Has(Value) && !q.Flags.Has(Synced)
}

// WithInterval returns a shallow copy of q with a new interval — used by the
// Cursor to re-scope the query for a continuation batch or a Mark-driven
// resume (§4.2 step 10, §6.2's Mark.CreateQuery).
func (q *StoreValuesQuery) WithInterval(iv Interval) *StoreValuesQuery {
	cp := *q
	cp.Interval = iv
	return &cp
}

// WithLimit returns a shallow copy of q with Limit narrowed to the minimum
// of the existing limit (0 = unbounded) and n.
func (q *StoreValuesQuery) WithLimit(n int) *StoreValuesQuery {
	cp := *q
	if cp.Limit <= 0 || n < cp.Limit {
		cp.Limit = n
	}
	return &cp
}
