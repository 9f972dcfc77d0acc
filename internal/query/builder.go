package query

import (
	"time"

	"github.com/pvcore/pointstore/internal/value"
)

// Builder collects mutable query fields and materializes an immutable
// StoreValuesQuery via Build, applying the normalization rules in spec.md
// §4.1 rather than leaving them to scattered call sites.
type Builder struct {
	point     PointHandle
	pointUUID *value.PointUUID
	interval  Interval
	sync      Sync
	rows      int
	hasRows   bool
	limit     int
	polatorTimeLimit time.Duration
	flags     Flags
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) WithPoint(p PointHandle) *Builder { b.point = p; return b }
func (b *Builder) WithPointUUID(u value.PointUUID) *Builder {
	cp := u
	b.pointUUID = &cp
	return b
}
func (b *Builder) WithInterval(iv Interval) *Builder { b.interval = iv; return b }
func (b *Builder) WithSync(s Sync) *Builder          { b.sync = s; return b }
func (b *Builder) WithRows(n int) *Builder           { b.rows = n; b.hasRows = true; return b }
func (b *Builder) WithLimit(n int) *Builder          { b.limit = n; return b }
func (b *Builder) WithPolatorTimeLimit(d time.Duration) *Builder {
	b.polatorTimeLimit = d
	return b
}
func (b *Builder) WithFlags(f Flags) *Builder { b.flags |= f; return b }

// Build materializes the query, applying §4.1 steps 1-8 in order.
func (b *Builder) Build() *StoreValuesQuery {
	flags := b.flags
	iv := b.interval

	// Step 1: polation without an instant interval forces SYNCED.
	polated := flags.Has(Extrapolated) || flags.Has(Interpolated)
	if polated && !iv.IsInstant() {
		flags = flags.Set(Synced)
	}

	// Step 2: AFTER/BEFORE reflect bound presence.
	if iv.After != nil {
		flags = flags.Set(After)
	} else {
		flags = flags.Clear(After)
	}
	if iv.Before != nil {
		flags = flags.Set(Before)
	} else {
		flags = flags.Clear(Before)
	}

	// Step 3: fully specified interval sets/clears MULTIPLE by instant-ness.
	if iv.IsFullySpecified() {
		if iv.IsInstant() {
			flags = flags.Clear(Multiple)
		} else {
			flags = flags.Set(Multiple)
		}
	}

	// Step 4: default to REVERSE ("last value") absent any of these.
	if !flags.Has(After) && !flags.Has(Forward) && !flags.Has(Multiple) && !flags.Has(Pull) {
		flags = flags.Set(Reverse)
	}

	// Step 5: an explicit row target overrides MULTIPLE/ROWS.
	rows := b.rows
	if b.hasRows {
		if rows <= 1 {
			flags = flags.Clear(Multiple)
		} else {
			flags = flags.Set(Multiple | Rows)
		}
	}

	// Step 6: PULL without an explicit ROWS target still consumes multiple
	// values.
	if flags.Has(Pull) && !flags.Has(Rows) {
		flags = flags.Set(Multiple)
	}

	// Step 7: SYNCED only survives if the point is sync-capable.
	if flags.Has(Synced) && (b.point == nil || !b.point.SyncCapable()) {
		flags = flags.Clear(Synced)
	}

	cancelled := false
	sync := b.sync
	if sync == nil && b.point != nil && flags.Has(Synced) {
		sync = b.point.Sync()
	}

	// Step 8: trim to the sync's default bounds and advance to the nearest
	// admissible instant; an empty intersection cancels the query.
	if sync != nil {
		limits := sync.DefaultLimits()
		if iv.After == nil {
			iv.After = limits.After
		}
		if iv.Before == nil {
			iv.Before = limits.Before
		}

		forward := flags.Has(Forward) || flags.Has(Multiple) && !flags.Has(Reverse)
		if flags.Has(Reverse) {
			forward = false
		}

		if forward && iv.After != nil {
			if next, ok := sync.Next(*iv.After, true); ok && (!isSet(iv.Before) || next < *iv.Before) {
				iv.After = &next
			} else {
				cancelled = true
			}
		} else if !forward && iv.Before != nil {
			last := *iv.Before - 1
			if next, ok := sync.Next(last, false); ok && (!isSet(iv.After) || next >= *iv.After) {
				v := next + 1
				iv.Before = &v
			} else {
				cancelled = true
			}
		}
	}

	q := &StoreValuesQuery{
		Point:            b.point,
		PointUUID:        b.pointUUID,
		Interval:         iv,
		Sync:             sync,
		rows:             rows,
		Limit:            b.limit,
		PolatorTimeLimit: b.polatorTimeLimit,
		Flags:            flags,
		Cancelled:        cancelled,
	}
	return q
}

// isSet is a nil-safe presence check for a *value.Stamp bound.
func isSet(p *value.Stamp) bool { return p != nil }
