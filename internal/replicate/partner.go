package replicate

import (
	"context"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/pvcore/pointstore/internal/value"
)

// Sink delivers a batch of replicated values to one partner. Send should
// return a non-nil error for any failure worth retrying; the Partner's
// drain loop backs off exponentially and retries the same batch until it
// succeeds, its context is canceled, or the backoff policy's elapsed-time
// limit runs out, in which case the batch is logged and dropped.
type Sink interface {
	Send(ctx context.Context, batch []value.ReplicatedValue) error
}

// Partner is a named replication target with a bounded, in-memory outbound
// queue; queued values are not persisted and do not survive a restart.
// Anonymous partners (Anonymous == true) receive every replicated point's
// value; named partners only receive values routed to them through a
// per-point Target.
type Partner struct {
	Name      string
	Anonymous bool

	sink   Sink
	log    zerolog.Logger
	mu     sync.Mutex
	queue  []value.ReplicatedValue
	cap    int
	closed bool
	wake   chan struct{}
}

// NewPartner builds a Partner draining through sink, bounded to capacity
// queued values (0 selects a default of 10000).
func NewPartner(name string, anonymous bool, capacity int, sink Sink, log zerolog.Logger) *Partner {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Partner{
		Name:      name,
		Anonymous: anonymous,
		sink:      sink,
		log:       log.With().Str("partner", name).Logger(),
		cap:       capacity,
		wake:      make(chan struct{}, 1),
	}
}

// enqueue appends v to the partner's in-memory queue, dropping the oldest
// entry once the queue is saturated rather than blocking the committing
// batch (the bound limits memory, it does not stall writers).
func (p *Partner) enqueue(v value.ReplicatedValue) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if len(p.queue) >= p.cap {
		p.log.Warn().Int("capacity", p.cap).Msg("replication queue saturated, dropping oldest entry")
		p.queue = p.queue[1:]
	}
	p.queue = append(p.queue, v)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run drains the partner's queue until ctx is canceled, retrying a failed
// Send with exponential backoff before moving on to the next batch.
func (p *Partner) Run(ctx context.Context) {
	for {
		batch := p.drain()
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-p.wake:
				continue
			}
		}

		b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
		err := backoff.Retry(func() error {
			return p.sink.Send(ctx, batch)
		}, b)
		if err != nil {
			p.log.Error().Err(err).Int("batch_size", len(batch)).Msg("giving up on replication batch")
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (p *Partner) drain() []value.ReplicatedValue {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return nil
	}
	batch := p.queue
	p.queue = nil
	return batch
}

// Close marks the partner closed; further enqueue calls are dropped.
func (p *Partner) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// Depth reports the partner's currently queued, undelivered value count.
func (p *Partner) Depth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
