package updater

import (
	"context"

	"github.com/pvcore/pointstore/internal/apperr"
	"github.com/pvcore/pointstore/internal/backend"
	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/stategroup"
	"github.com/pvcore/pointstore/internal/value"
)

// Config holds the update pipeline's store-wide defaults.
type Config struct {
	// DefaultNullRemoves is the store-wide null-removes setting: a null
	// update becomes a tombstone when either it or the point's own
	// null-removes parameter is set.
	DefaultNullRemoves bool
	// DropDeleted is accepted but not read by the Pipeline: a Delete always
	// leaves a tombstone row under the point's deleted-uuid shadow key.
	DropDeleted bool
}

// Pipeline runs update(pointValues, identity) per spec.md §4.4.
type Pipeline struct {
	backend    backend.Store
	resolver   Resolver
	states     *stategroup.Resolver
	notifier   Notifier
	replicator Replicator
	clock      VersionClock
	lock       *SuspendLock
	cfg        Config
}

// New builds a Pipeline. lock is shared with the component that implements
// suspendUpdates, so a caller suspending the store blocks every concurrent
// batch.
func New(store backend.Store, resolver Resolver, states *stategroup.Resolver, notifier Notifier, replicator Replicator, clock VersionClock, lock *SuspendLock, cfg Config) *Pipeline {
	if clock == nil {
		clock = &AtomicVersionClock{}
	}
	return &Pipeline{backend: store, resolver: resolver, states: states, notifier: notifier, replicator: replicator, clock: clock, lock: lock, cfg: cfg}
}

// Update applies a batch of point values, returning one Result per input
// element. A per-value failure does not invalidate the rest of the batch.
func (p *Pipeline) Update(ctx context.Context, identity query.Identity, values []value.PointValue) []Result {
	results := make([]Result, len(values))

	p.lock.AcquireUpdate()
	defer p.lock.ReleaseUpdate()

	writers := make(map[value.PointUUID]backend.Writer)
	defer func() {
		for _, w := range writers {
			w.Rollback(ctx)
		}
	}()

	for i, pv := range values {
		v, err := p.applyOne(ctx, identity, pv, writers)
		if err != nil {
			results[i] = Result{Exception: toAppErr(err)}
			continue
		}
		results[i] = Result{Value: v}
	}

	for point, w := range writers {
		if err := w.Commit(ctx); err != nil {
			// A commit failure after per-value success is reported against
			// every element of the batch for that point that had not
			// already failed; its Value stays set, but the Exception marks
			// it as not committed.
			for i, pv := range values {
				if pv.PointUUID.Undeleted() == point && results[i].Exception == nil {
					results[i].Exception = apperr.Wrap(apperr.StoreAccess, "commit failed", err)
				}
			}
		}
		delete(writers, point)
	}

	return results
}

func toAppErr(err error) *apperr.Error {
	if ae, ok := err.(*apperr.Error); ok {
		return ae
	}
	return apperr.Wrap(apperr.IllegalState, "update failed", err)
}

// applyOne implements steps 1-5 for a single value.
func (p *Pipeline) applyOne(ctx context.Context, identity query.Identity, pv value.PointValue, writers map[value.PointUUID]backend.Writer) (value.VersionedValue, error) {
	// Step 1: point resolution.
	pt, known := p.resolver.ResolveByUUID(pv.PointUUID)
	if !known {
		return value.VersionedValue{}, apperr.New(apperr.PointUnknown, "unknown point")
	}

	if pv.State != nil && p.states != nil {
		s := *pv.State
		var err error
		switch {
		case s.Name == "" && s.Code != 0:
			err = p.states.ResolveName(pt.StateGroup(), &s)
		case s.Code == 0 && s.Name != "":
			err = p.states.ResolveCode(pt.StateGroup(), &s)
		}
		if err != nil {
			return value.VersionedValue{}, err
		}
		pv.State = &s
	}

	// Step 3: null-removes conversion happens before action computation so
	// DELETE is computed against the post-conversion intent.
	isDelete := (pt.NullRemoves() || p.cfg.DefaultNullRemoves) && pv.IsNullIntent()
	action := actionFor(pt, isDelete)

	// Step 2: permission check. PROCESS (point has input relations) only
	// requires read access to the inputs it derives from; every other
	// action writes the point directly.
	perm := pt.Permissions()
	allowed := true
	if perm != nil {
		if action == ActionProcess {
			allowed = perm.CheckRead(identity)
		} else {
			allowed = perm.CheckWrite(identity)
		}
	}
	if !allowed {
		return value.VersionedValue{}, apperr.New(apperr.Unauthorized, "write denied for point")
	}

	version := p.clock.Next()
	point := pt.UUID().Undeleted()

	w, ok := writers[point]
	if !ok {
		var err error
		w, err = p.backend.Writer(ctx, point)
		if err != nil {
			return value.VersionedValue{}, apperr.Wrap(apperr.StoreAccess, "opening writer", err)
		}
		writers[point] = w
	}

	if isDelete {
		d := value.NewDeleted(point, pv.Stamp, version)
		if err := w.Delete(ctx, d); err != nil {
			return value.VersionedValue{}, apperr.Wrap(apperr.StoreAccess, "delete failed", err)
		}
		if p.notifier != nil {
			p.notifier.Notify(ctx, d.VersionedValue, true)
		}
		if p.replicator != nil {
			p.replicator.Replicate(ctx, d.VersionedValue, true)
		}
		return d.VersionedValue, nil
	}

	vv := value.VersionedValue{PointValue: pv, Version: version}
	vv.PointUUID = point
	if err := w.Insert(ctx, vv); err != nil {
		return value.VersionedValue{}, apperr.Wrap(apperr.StoreAccess, "insert failed", err)
	}

	if p.notifier != nil {
		p.notifier.Notify(ctx, vv, false)
	}
	if p.replicator != nil {
		p.replicator.Replicate(ctx, vv, false)
	}
	return vv, nil
}
