package updater

import (
	"sync/atomic"

	"github.com/pvcore/pointstore/internal/value"
)

// VersionClock assigns the server write-commit time: strictly increasing
// across successive calls.
type VersionClock interface {
	Next() value.Version
}

// AtomicVersionClock is an in-process monotonic counter, sufficient for a
// single store instance; a replicated deployment would substitute a clock
// backed by the durable sequence its pgstore keeps.
type AtomicVersionClock struct {
	counter int64
}

// Next returns the next strictly increasing version.
func (c *AtomicVersionClock) Next() value.Version {
	return value.Version(atomic.AddInt64(&c.counter, 1))
}
