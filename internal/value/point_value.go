package value

// Stamp is the raw 64-bit monotone measurement time. It is opaque to the
// core beyond ordering; callers agree on a unit (typically Unix
// milliseconds) out of band.
type Stamp int64

// Version is the server-assigned write-commit time, strictly increasing
// across successive writes to the same (point, stamp) pair.
type Version int64

// PointValue is an immutable timestamped measurement. Per spec.md's data
// model, a PointValue with both Value and State nil encodes tombstone
// intent when the owning point is configured null-removes.
type PointValue struct {
	PointUUID PointUUID `json:"pointUuid"`
	Stamp     Stamp     `json:"stamp"`
	State     *State    `json:"state,omitempty"`
	Value     *Value    `json:"value,omitempty"`
}

// IsNullIntent reports whether this value carries neither a value nor a
// state — the null-removes tombstone trigger.
func (p PointValue) IsNullIntent() bool {
	return p.Value == nil && p.State == nil
}

// VersionedValue extends PointValue with the server-assigned write version.
type VersionedValue struct {
	PointValue
	Version Version `json:"version"`
}

// Deleted is a versioned value representing a tombstone: value and state
// are cleared, but the row is retained (under the point's deleted-uuid
// shadow key) until purged.
type Deleted struct {
	VersionedValue
}

// NewDeleted builds a Deleted tombstone for the given point/stamp/version,
// stored under the point's deleted-uuid shadow key.
func NewDeleted(pu PointUUID, stamp Stamp, ver Version) Deleted {
	return Deleted{VersionedValue{
		PointValue: PointValue{PointUUID: pu.WithDeleted(true), Stamp: stamp},
		Version:    ver,
	}}
}

// Purged is a tombstone that additionally authorizes physical row removal;
// issuing one propagates the removal through replication the same way an
// ordinary update propagates a write.
type Purged struct {
	VersionedValue
}

// NewPurged builds a Purged marker for the given point/stamp/version.
func NewPurged(pu PointUUID, stamp Stamp, ver Version) Purged {
	return Purged{VersionedValue{
		PointValue: PointValue{PointUUID: pu.Undeleted(), Stamp: stamp},
		Version:    ver,
	}}
}

// ReplicatedValue is a tombstone-aware clone of a versioned value targeted
// at a specific point — the unit that flows through the Notifier's
// subscription delivery queues and the Replicator's per-partner queues.
type ReplicatedValue struct {
	VersionedValue
	Deleted bool `json:"deleted"`
}

// FromVersioned wraps a VersionedValue as a non-deleted ReplicatedValue.
func FromVersioned(v VersionedValue) ReplicatedValue {
	return ReplicatedValue{VersionedValue: v}
}

// FromDeleted wraps a Deleted tombstone as a deleted ReplicatedValue.
func FromDeleted(d Deleted) ReplicatedValue {
	return ReplicatedValue{VersionedValue: d.VersionedValue, Deleted: true}
}
