package query

import (
	"testing"

	"github.com/pvcore/pointstore/internal/value"
)

func TestBuilderDefaultsToReverse(t *testing.T) {
	q := NewBuilder().Build()
	if !q.Flags.Has(Reverse) {
		t.Errorf("expected REVERSE to be forced by default, flags=%v", q.Flags)
	}
	if q.Rows() != 1 {
		t.Errorf("Rows() = %d, want 1", q.Rows())
	}
}

func TestBuilderRowsNormalization(t *testing.T) {
	tests := []struct {
		name         string
		rows         int
		wantMultiple bool
		wantRowsFlag bool
		wantRows     int
	}{
		{"rows=0 clears multiple", 0, false, false, 1},
		{"rows=1 clears multiple", 1, false, false, 1},
		{"rows=5 sets multiple and rows flag", 5, true, true, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewBuilder().WithRows(tt.rows).Build()
			if got := q.Flags.Has(Multiple); got != tt.wantMultiple {
				t.Errorf("MULTIPLE = %v, want %v", got, tt.wantMultiple)
			}
			if got := q.Flags.Has(Rows); got != tt.wantRowsFlag {
				t.Errorf("ROWS = %v, want %v", got, tt.wantRowsFlag)
			}
			if got := q.Rows(); got != tt.wantRows {
				t.Errorf("Rows() = %d, want %d", got, tt.wantRows)
			}
		})
	}
}

func TestBuilderFullySpecifiedInstantClearsMultiple(t *testing.T) {
	after := value.Stamp(100)
	before := value.Stamp(101)
	q := NewBuilder().WithInterval(Interval{After: &after, Before: &before}).Build()
	if q.Flags.Has(Multiple) {
		t.Error("instant interval must clear MULTIPLE")
	}
	if q.Flags.Has(Reverse) {
		t.Error("a fully bounded interval must not force REVERSE")
	}
}

func TestBuilderFullySpecifiedRangeSetsMultiple(t *testing.T) {
	after := value.Stamp(100)
	before := value.Stamp(200)
	q := NewBuilder().WithInterval(Interval{After: &after, Before: &before}).Build()
	if !q.Flags.Has(Multiple) {
		t.Error("non-instant fully specified interval must set MULTIPLE")
	}
}

func TestBuilderPullWithoutRowsSetsMultiple(t *testing.T) {
	q := NewBuilder().WithFlags(Pull).Build()
	if !q.Flags.Has(Multiple) {
		t.Error("PULL without ROWS must set MULTIPLE")
	}
}

func TestBuilderSyncedClearedWithoutSyncCapablePoint(t *testing.T) {
	q := NewBuilder().WithFlags(Synced).Build()
	if q.Flags.Has(Synced) {
		t.Error("SYNCED must be cleared without a sync-capable point")
	}
}

type fakeSync struct {
	limits Interval
	step   value.Stamp
}

func (s fakeSync) IsInSync(v value.Stamp) bool { return v%s.step == 0 }

func (s fakeSync) Next(v value.Stamp, forward bool) (value.Stamp, bool) {
	if forward {
		n := ((v + s.step - 1) / s.step) * s.step
		return n, true
	}
	n := (v / s.step) * s.step
	return n, true
}

func (s fakeSync) DefaultLimits() Interval { return s.limits }

type fakePoint struct {
	uuid       value.PointUUID
	syncable   bool
	sync       Sync
	permission Permissions
}

func (p fakePoint) UUID() value.PointUUID     { return p.uuid }
func (p fakePoint) SyncCapable() bool         { return p.syncable }
func (p fakePoint) Sync() Sync                { return p.sync }
func (p fakePoint) Permissions() Permissions  { return p.permission }

func TestBuilderSyncAdvancesForwardEndpoint(t *testing.T) {
	s := fakeSync{step: 10}
	pt := fakePoint{syncable: true, sync: s}
	after := value.Stamp(3)
	q := NewBuilder().
		WithPoint(pt).
		WithFlags(Synced | Forward).
		WithInterval(Interval{After: &after}).
		Build()

	if q.Cancelled {
		t.Fatal("query should not be cancelled")
	}
	if *q.Interval.After != 10 {
		t.Errorf("After = %d, want 10 (advanced to next sync instant)", *q.Interval.After)
	}
}

func TestMarkCreateQueryResumesForward(t *testing.T) {
	q := NewBuilder().WithFlags(Forward).Build()
	m := &Mark{Query: q, NextStamp: 42}
	resumed := m.CreateQuery()
	if resumed.Interval.After == nil || *resumed.Interval.After != 42 {
		t.Fatalf("resumed query After = %v, want 42", resumed.Interval.After)
	}
}

func TestMarkCreateQueryResumesReverse(t *testing.T) {
	q := NewBuilder().WithFlags(Reverse).Build()
	m := &Mark{Query: q, NextStamp: 42}
	resumed := m.CreateQuery()
	if resumed.Interval.Before == nil || *resumed.Interval.Before != 43 {
		t.Fatalf("resumed query Before = %v, want 43", resumed.Interval.Before)
	}
}
