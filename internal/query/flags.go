package query

// Flags is the bit-flag mask that is the canonical on-wire form of a
// StoreValuesQuery. Strongly-typed builder/accessors sit on top of it and
// enforce the normalization rules at build time (spec.md §9 design note).
type Flags uint32

const (
	Value Flags = 1 << iota
	Count
	Deleted
	Extrapolated
	Forward
	Interpolated
	Marked
	Multiple
	Normalized
	Pull
	Reverse
	Rows
	Synced
	Any
	After
	Before
)

// Has reports whether every bit in mask is set in f.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Set returns f with mask set.
func (f Flags) Set(mask Flags) Flags { return f | mask }

// Clear returns f with mask cleared.
func (f Flags) Clear(mask Flags) Flags { return f &^ mask }
