// Package archive implements the scheduled archiver/purger: per-point
// life-time sweeps that purge rows older than their retention window, plus
// an on-demand purge(point_uuids, interval) operation. Purged rows may be
// spilled to an attic before deletion for offline retention.
package archive

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pvcore/pointstore/internal/backend"
	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/value"
)

// Attic receives a purged value before its row is physically removed, for
// offline retention. The default NopAttic discards everything.
type Attic interface {
	Spill(ctx context.Context, v value.Purged) error
}

// NopAttic discards every spilled value.
type NopAttic struct{}

// Spill implements Attic.
func (NopAttic) Spill(context.Context, value.Purged) error { return nil }

// LifeTimeSource reports each point's configured retention window. A point
// absent from the source (ok == false) has no life-time and is skipped by
// the scheduled sweep.
type LifeTimeSource interface {
	LifeTimes(ctx context.Context) (map[value.PointUUID]time.Duration, error)
}

// Clock abstracts "now" for tests.
type Clock func() time.Time

// Archiver runs the scheduled life-time sweep and serves on-demand purges.
type Archiver struct {
	backend  backend.Store
	lifetime LifeTimeSource
	attic    Attic
	notifier PurgeNotifier
	clock    Clock
	log      zerolog.Logger

	interval time.Duration
}

// PurgeNotifier propagates a purge as a Purged value, the same way a write
// propagates through replication, so downstream partners drop the rows too.
type PurgeNotifier interface {
	Notify(ctx context.Context, v value.VersionedValue, deleted bool)
	Replicate(ctx context.Context, v value.VersionedValue, deleted bool)
}

// New builds an Archiver. sweepInterval governs how often Run evaluates
// every configured point's life-time; attic may be nil, selecting NopAttic.
func New(store backend.Store, lifetime LifeTimeSource, notifier PurgeNotifier, attic Attic, sweepInterval time.Duration, log zerolog.Logger) *Archiver {
	if attic == nil {
		attic = NopAttic{}
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}
	return &Archiver{
		backend:  store,
		lifetime: lifetime,
		attic:    attic,
		notifier: notifier,
		clock:    time.Now,
		log:      log,
		interval: sweepInterval,
	}
}

// Run evaluates every configured point's life-time on a ticker until ctx is
// canceled.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.sweepOnce(ctx); err != nil {
				a.log.Error().Err(err).Msg("archiver sweep failed")
			}
		}
	}
}

func (a *Archiver) sweepOnce(ctx context.Context) error {
	lifetimes, err := a.lifetime.LifeTimes(ctx)
	if err != nil {
		return err
	}
	now := a.clock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for point, life := range lifetimes {
		point, life := point, life
		g.Go(func() error {
			cutoff := value.Stamp(now.Add(-life).UnixMilli())
			removed, err := a.Purge(gctx, []value.PointUUID{point}, query.Interval{Before: &cutoff})
			if err != nil {
				a.log.Error().Err(err).Str("point", point.String()).Msg("life-time purge failed")
				return nil
			}
			if removed > 0 {
				a.log.Info().Str("point", point.String()).Uint64("removed", removed).Msg("life-time purge")
			}
			return nil
		})
	}
	return g.Wait()
}

// Purge deletes every row at or before interval.Before for each point (and
// its tombstone-shadow uuid) — backend.Writer.Purge only exposes an upper
// retention boundary, so interval.After narrows which rows get spilled to
// the attic but does not itself bound what gets physically removed.
// Removal emits a Purged value so replication propagates it.
func (a *Archiver) Purge(ctx context.Context, points []value.PointUUID, interval query.Interval) (uint64, error) {
	var total uint64
	for _, point := range points {
		for _, key := range []value.PointUUID{point.Undeleted(), point.WithDeleted(true)} {
			n, err := a.purgeOne(ctx, key, interval)
			if err != nil {
				return total, err
			}
			total += n
		}
	}
	return total, nil
}

func (a *Archiver) purgeOne(ctx context.Context, point value.PointUUID, interval query.Interval) (uint64, error) {
	if err := a.spillPending(ctx, point, interval); err != nil {
		return 0, err
	}

	w, err := a.backend.Writer(ctx, point.Undeleted())
	if err != nil {
		return 0, err
	}

	upTo := value.Stamp(1<<63 - 1)
	if interval.Before != nil {
		upTo = *interval.Before
	}

	removed, err := w.Purge(ctx, point, upTo)
	if err != nil {
		w.Rollback(ctx)
		return 0, err
	}
	if err := w.Commit(ctx); err != nil {
		return 0, err
	}

	if removed > 0 {
		purged := value.NewPurged(point, upTo, 0)
		if a.notifier != nil {
			a.notifier.Notify(ctx, purged.VersionedValue, true)
			a.notifier.Replicate(ctx, purged.VersionedValue, true)
		}
	}
	return removed, nil
}

// spillPending reads every row the purge is about to remove and hands it
// to the attic before the Writer.Purge call below deletes it. Writer.Purge
// removes rows at interval.Before too, so the exclusive Reset bound is
// moved one stamp past it.
func (a *Archiver) spillPending(ctx context.Context, point value.PointUUID, interval query.Interval) error {
	r, err := a.backend.Responder(ctx, point, false, false)
	if err != nil {
		return err
	}
	defer r.Close(ctx)

	var before *value.Stamp
	if interval.Before != nil {
		b := *interval.Before + 1
		before = &b
	}
	if err := r.Reset(ctx, interval.After, before, 0); err != nil {
		return err
	}
	for {
		v, ok, err := r.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		purged := value.Purged{VersionedValue: v}
		if err := a.attic.Spill(ctx, purged); err != nil {
			a.log.Warn().Err(err).Str("point", point.String()).Msg("attic spill failed")
		}
	}
	return nil
}
