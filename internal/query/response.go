package query

import (
	"github.com/pvcore/pointstore/internal/apperr"
	"github.com/pvcore/pointstore/internal/value"
)

// StoreValues is the response a Cursor produces for one query: a sequence
// of values, an optional embedded exception (cursor-level errors never
// propagate as a Go error to the session layer — spec.md §7), an optional
// continuation Mark, and — for COUNT queries — a row count.
type StoreValues struct {
	Values    []value.VersionedValue
	Count     uint64
	HasCount  bool
	Mark      *Mark
	Exception *apperr.Error
}

// WithException returns a response carrying only an embedded exception.
func WithException(err *apperr.Error) *StoreValues {
	return &StoreValues{Exception: err}
}
