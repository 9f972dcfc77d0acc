package cursor

import (
	"context"

	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/value"
)

// PermissionsResolver looks up read/write permissions for a point encountered
// mid-walk, for queries that name no bound point (spec.md §4.2 step 8's
// per-point permission check).
type PermissionsResolver interface {
	PermissionsFor(ctx context.Context, point value.PointUUID) query.Permissions
}

// Normalizer converts a VersionedValue to its normalized form when a query's
// NORMALIZED flag is set. The normalization itself (unit conversion, value
// coercion) is an injected strategy, not cursor's concern.
type Normalizer interface {
	Normalize(ctx context.Context, point query.PointHandle, v value.VersionedValue) value.VersionedValue
}
