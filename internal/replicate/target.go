package replicate

import "github.com/pvcore/pointstore/internal/value"

// Target is a per-point replicate binding to a named partner: the source
// point's committed values are cloned, their point reference morphed to
// Point, and optionally converted before being enqueued.
type Target struct {
	Partner string
	Point   value.PointUUID
	Convert bool
}

// Converter normalizes or denormalizes a value as it crosses into a target
// point whose engineering units or representation differ from the source.
type Converter interface {
	Normalize(target value.PointUUID, v value.VersionedValue) value.VersionedValue
	Denormalize(target value.PointUUID, v value.VersionedValue) value.VersionedValue
}
