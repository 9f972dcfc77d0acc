// Package notify implements the updater.Notifier fan-out: every committed
// value (or tombstone) reaches the subscription manager in the same order
// the updater pipeline committed it.
package notify

import (
	"context"

	"github.com/pvcore/pointstore/internal/value"
)

// Publisher accepts a committed value for fan-out to subscribed sessions.
// internal/subscription.Manager implements this.
type Publisher interface {
	Publish(v value.ReplicatedValue)
}

// Fanout adapts a Publisher to updater.Notifier. It holds no buffering of
// its own: Notify is called synchronously from within the updater's commit
// path, so commit order is preserved by construction.
type Fanout struct {
	publisher Publisher
}

// New returns a Fanout publishing through p.
func New(p Publisher) *Fanout {
	return &Fanout{publisher: p}
}

// Notify implements updater.Notifier.
func (f *Fanout) Notify(ctx context.Context, v value.VersionedValue, deleted bool) {
	if f.publisher == nil {
		return
	}
	rv := value.FromVersioned(v)
	rv.Deleted = deleted
	f.publisher.Publish(rv)
}
