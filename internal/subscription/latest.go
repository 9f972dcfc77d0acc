package subscription

import (
	"context"

	"github.com/pvcore/pointstore/internal/backend"
	"github.com/pvcore/pointstore/internal/value"
)

// BackendLatest adapts a backend.Store into a LatestValueSource by opening a
// reverse Responder and taking its first row.
type BackendLatest struct {
	Store backend.Store
}

// Latest implements LatestValueSource.
func (b BackendLatest) Latest(ctx context.Context, point value.PointUUID) (value.VersionedValue, bool, error) {
	r, err := b.Store.Responder(ctx, point, true, false)
	if err != nil {
		if err == backend.ErrNoSuchPoint {
			return value.VersionedValue{}, false, nil
		}
		return value.VersionedValue{}, false, err
	}
	defer r.Close(ctx)

	if err := r.Reset(ctx, nil, nil, 0); err != nil {
		return value.VersionedValue{}, false, err
	}
	v, ok, err := r.Next(ctx)
	if err != nil || !ok {
		return value.VersionedValue{}, false, err
	}
	return v, true, nil
}
