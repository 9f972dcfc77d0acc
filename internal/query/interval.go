package query

import "github.com/pvcore/pointstore/internal/value"

// Interval is a half-open [After, Before) range of stamps. Either bound may
// be absent (nil), meaning unbounded on that side.
type Interval struct {
	After  *value.Stamp
	Before *value.Stamp
}

// IsInstant reports whether the interval names exactly one stamp: both
// bounds present and adjacent such that only After itself is admissible.
// The source treats a fully specified interval as "instant" when After and
// Before denote the same single stamp rather than a true half-open span;
// callers that want a single-stamp lookup pass After == Before-1 in whatever
// unit they use, or use NewInstant below.
func (iv Interval) IsInstant() bool {
	return iv.After != nil && iv.Before != nil && *iv.Before == *iv.After+1
}

// IsFullySpecified reports whether both bounds are present.
func (iv Interval) IsFullySpecified() bool {
	return iv.After != nil && iv.Before != nil
}

// Contains reports whether s falls within [After, Before).
func (iv Interval) Contains(s value.Stamp) bool {
	if iv.After != nil && s < *iv.After {
		return false
	}
	if iv.Before != nil && s >= *iv.Before {
		return false
	}
	return true
}

// Empty reports whether the interval can contain no stamp at all.
func (iv Interval) Empty() bool {
	return iv.After != nil && iv.Before != nil && *iv.After >= *iv.Before
}

// NewInstant builds a single-stamp instant interval [s, s+1).
func NewInstant(s value.Stamp) Interval {
	after := s
	before := s + 1
	return Interval{After: &after, Before: &before}
}

func stampPtr(s value.Stamp) *value.Stamp { return &s }
