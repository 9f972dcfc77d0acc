package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pvcore/pointstore/internal/archive"
	"github.com/pvcore/pointstore/internal/backend"
	"github.com/pvcore/pointstore/internal/binding"
	"github.com/pvcore/pointstore/internal/cursor"
	"github.com/pvcore/pointstore/internal/metrics"
	"github.com/pvcore/pointstore/internal/notify"
	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/replicate"
	"github.com/pvcore/pointstore/internal/stategroup"
	"github.com/pvcore/pointstore/internal/subscription"
	"github.com/pvcore/pointstore/internal/updater"
	"github.com/pvcore/pointstore/internal/value"
)

// nopPolators never configures a polator for any point; Cursor.CreateResponse
// returns IllegalState for a polated query until a concrete strategy is
// wired in (interpolation/extrapolation math is out of scope per SPEC_FULL.md
// §1's carried-over non-goal).
type nopPolators struct{}

func (nopPolators) PolatorFor(query.PointHandle) cursor.Polator { return nil }

// identityNormalizer passes a value through unchanged; a real deployment
// injects unit-conversion-aware normalization through New's normalizer arg.
type identityNormalizer struct{}

func (identityNormalizer) Normalize(_ context.Context, _ query.PointHandle, v value.VersionedValue) value.VersionedValue {
	return v
}

// purgeSink adapts a notify.Fanout/replicate.Replicator pair to
// archive.PurgeNotifier, so a purge propagates to subscribers and
// replication partners the same way an ordinary write does.
type purgeSink struct {
	notifier   *notify.Fanout
	replicator *replicate.Replicator
}

func (p purgeSink) Notify(ctx context.Context, v value.VersionedValue, deleted bool) {
	p.notifier.Notify(ctx, v, deleted)
}

func (p purgeSink) Replicate(ctx context.Context, v value.VersionedValue, deleted bool) {
	p.replicator.Replicate(ctx, v, deleted)
}

// Config bundles the tunables a Store is built with.
type Config struct {
	Cursor  cursor.Config
	Updater updater.Config

	SubscriptionQueueCapacity int
	ArchiveSweepInterval      time.Duration
}

// Store is the top-level façade bundling every core component behind the
// session.RPC surface a transport adapter calls into. One Store serves many
// concurrent Sessions.
type Store struct {
	Backend  backend.Store
	Bindings *binding.Index
	States   *stategroup.Resolver
	Catalog  *Catalog

	cursor       *cursor.Cursor
	pipeline     *updater.Pipeline
	subscription *subscription.Manager
	notifier     *notify.Fanout
	replicator   *replicate.Replicator
	archiver     *archive.Archiver

	lock *updater.SuspendLock
}

// New wires every component together. polators and normalizer may be nil,
// selecting strategies that reject polation and pass values through
// unnormalized respectively; converter and attic may be nil.
func New(
	backendStore backend.Store,
	bindings *binding.Index,
	states *stategroup.Resolver,
	catalog *Catalog,
	polators cursor.Polators,
	normalizer cursor.Normalizer,
	converter replicate.Converter,
	attic archive.Attic,
	cfg Config,
) *Store {
	if polators == nil {
		polators = nopPolators{}
	}
	if normalizer == nil {
		normalizer = identityNormalizer{}
	}

	s := &Store{
		Backend:  backendStore,
		Bindings: bindings,
		States:   states,
		Catalog:  catalog,
		lock:     &updater.SuspendLock{},
	}

	s.cursor = cursor.New(backendStore, polators, catalog, normalizer, cfg.Cursor)

	sub := subscription.New(subscription.BackendLatest{Store: backendStore}, cfg.SubscriptionQueueCapacity)
	s.subscription = sub
	s.notifier = notify.New(sub)
	s.replicator = replicate.New(catalog, converter)

	s.pipeline = updater.New(backendStore, catalog, states, s.notifier, s.replicator, nil, s.lock, cfg.Updater)

	s.archiver = archive.New(backendStore, catalog, purgeSink{s.notifier, s.replicator}, attic, cfg.ArchiveSweepInterval, zerolog.Nop())
	return s
}

// RegisterReplicationPartner adds a replication partner, starts its drain
// loop under ctx, and registers a queue-depth gauge scraped at /metrics.
func (s *Store) RegisterReplicationPartner(ctx context.Context, p *replicate.Partner) {
	s.replicator.RegisterPartner(ctx, p)
	metrics.RegisterPartnerQueueDepth(p.Name, func() float64 { return float64(p.Depth()) })
}

// RunArchiver starts the scheduled life-time sweep; it blocks until ctx is
// canceled.
func (s *Store) RunArchiver(ctx context.Context) error {
	return s.archiver.Run(ctx)
}

// Suspend waits for every in-flight Update batch to finish and blocks new
// batches until Resume is called, used by maintenance operations that must
// see a quiescent store.
func (s *Store) Suspend() { s.lock.Suspend() }

// Resume releases a prior Suspend.
func (s *Store) Resume() { s.lock.Resume() }

// Close releases the replicator's partner queues and the backend.
func (s *Store) Close(ctx context.Context) error {
	s.replicator.Close()
	return s.Backend.Close(ctx)
}
