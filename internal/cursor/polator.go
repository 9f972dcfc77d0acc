// Package cursor implements create_response: turning one normalized
// StoreValuesQuery into a StoreValues response by walking a backend.Responder
// and applying permission, filter, and pagination rules.
package cursor

import (
	"context"

	"github.com/pvcore/pointstore/internal/query"
)

// Polator computes interpolated or extrapolated values for a point directly,
// bypassing the backend walk entirely. It is an injected strategy: the
// mathematics of interpolation/extrapolation are out of scope here.
type Polator interface {
	Polate(ctx context.Context, q *query.StoreValuesQuery) (*query.StoreValues, error)
}

// Polators resolves the configured Polator for a point. A nil return means
// no polator is configured for that point.
type Polators interface {
	PolatorFor(point query.PointHandle) Polator
}
