package updater

import (
	"context"

	"github.com/pvcore/pointstore/internal/value"
)

// Notifier fans out a successfully committed update to subscribed sessions,
// preserving commit order per point.
type Notifier interface {
	Notify(ctx context.Context, v value.VersionedValue, deleted bool)
}

// Replicator fans a successfully committed update out to configured
// partner queues.
type Replicator interface {
	Replicate(ctx context.Context, v value.VersionedValue, deleted bool)
}
