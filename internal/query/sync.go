package query

import "github.com/pvcore/pointstore/internal/value"

// Sync is a schedule of admissible instants for a point's values (e.g.
// "every minute"). It is consumed, never implemented, by the core — the
// concrete schedule comes from metadata loaded outside this package.
type Sync interface {
	// IsInSync reports whether s is an admissible instant.
	IsInSync(s value.Stamp) bool

	// Next returns the next admissible instant at or after s (forward) or
	// at or before s (reverse), and false if none exists.
	Next(s value.Stamp, forward bool) (value.Stamp, bool)

	// DefaultLimits returns the sync's own default bounding interval, used
	// to trim a query interval that has no explicit bounds of its own.
	DefaultLimits() Interval
}
