// Package value implements the point-value data model: the UUID-with-deleted-bit
// identifier, the tagged value union, and the point-value / versioned-value
// record types described by the store's data model.
package value

import (
	"bytes"

	"github.com/google/uuid"
)

// deletedBit is the high bit of the last byte of the UUID's serialized form.
// It is never touched by uuid.UUID equality directly because PointUUID keeps
// its own bool flag; the bit is only folded in at MarshalBinary time for
// wire/storage compatibility with the source system's mutable-deleted-bit
// UUIDs (see DESIGN.md).
const deletedBit = 0x80

// PointUUID is a 16-byte point identifier plus a one-bit "deleted" marker.
// Two PointUUIDs are equal only if both the id and the deleted flag match;
// ordering compares the id bytes first, then the flag.
type PointUUID struct {
	ID      uuid.UUID
	Deleted bool
}

// NewPointUUID wraps a plain uuid.UUID as an undeleted PointUUID.
func NewPointUUID(id uuid.UUID) PointUUID {
	return PointUUID{ID: id}
}

// Undeleted returns a copy of u with the deleted flag cleared.
func (u PointUUID) Undeleted() PointUUID {
	u.Deleted = false
	return u
}

// WithDeleted returns a copy of u with the deleted flag set to b.
func (u PointUUID) WithDeleted(b bool) PointUUID {
	u.Deleted = b
	return u
}

// Matches reports whether u and other refer to the same point id,
// ignoring the deleted flag.
func (u PointUUID) Matches(other PointUUID) bool {
	return u.ID == other.ID
}

// Equal compares both the id and the deleted flag.
func (u PointUUID) Equal(other PointUUID) bool {
	return u.ID == other.ID && u.Deleted == other.Deleted
}

// Compare orders by id bytes first, then by the deleted flag (undeleted < deleted).
func (u PointUUID) Compare(other PointUUID) int {
	if c := bytes.Compare(u.ID[:], other.ID[:]); c != 0 {
		return c
	}
	switch {
	case u.Deleted == other.Deleted:
		return 0
	case !u.Deleted:
		return -1
	default:
		return 1
	}
}

// String renders the id, with a trailing "!" marker when deleted.
func (u PointUUID) String() string {
	if u.Deleted {
		return u.ID.String() + "!"
	}
	return u.ID.String()
}

// MarshalBinary serializes the UUID with the deleted flag folded into the
// high bit of the last byte, matching the source system's on-disk shadow-key
// convention: a point's tombstones live under a distinct byte key derived
// from its live key.
func (u PointUUID) MarshalBinary() ([]byte, error) {
	b := make([]byte, 16)
	copy(b, u.ID[:])
	if u.Deleted {
		b[15] |= deletedBit
	} else {
		b[15] &^= deletedBit
	}
	return b, nil
}

// UnmarshalBinary parses the 16-byte wire form produced by MarshalBinary.
func (u *PointUUID) UnmarshalBinary(b []byte) error {
	if len(b) != 16 {
		return ErrInvalidUUID
	}
	var raw uuid.UUID
	copy(raw[:], b)
	deleted := raw[15]&deletedBit != 0
	raw[15] &^= deletedBit
	u.ID = raw
	u.Deleted = deleted
	return nil
}

// ParsePointUUID parses a string produced by String(), accepting an optional
// trailing "!" as the deleted marker.
func ParsePointUUID(s string) (PointUUID, error) {
	deleted := false
	if len(s) > 0 && s[len(s)-1] == '!' {
		deleted = true
		s = s[:len(s)-1]
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return PointUUID{}, err
	}
	return PointUUID{ID: id, Deleted: deleted}, nil
}
