// Package replicate implements the Replicator: fan-out of committed
// updates to anonymous and named partner queues, per-point replicate
// targets with optional unit conversion, and a per-point deadband/step
// value filter.
package replicate

import (
	"context"
	"sync"

	"github.com/pvcore/pointstore/internal/value"
)

// PointClassifier tells the Replicator whether a point is configured as
// replicated at all. A nil classifier replicates every point, which is
// adequate for tests and for deployments with no selective replication.
type PointClassifier interface {
	IsReplicated(point value.PointUUID) bool
}

// Replicator fans committed values out to partner queues. It implements
// updater.Replicator.
type Replicator struct {
	mu         sync.RWMutex
	partners   map[string]*Partner
	anonymous  []*Partner
	targets    map[value.PointUUID][]Target
	filters    map[value.PointUUID]*Filter
	classifier PointClassifier
	converter  Converter
}

// New returns an empty Replicator. classifier may be nil.
func New(classifier PointClassifier, converter Converter) *Replicator {
	return &Replicator{
		partners:   make(map[string]*Partner),
		targets:    make(map[value.PointUUID][]Target),
		filters:    make(map[value.PointUUID]*Filter),
		classifier: classifier,
		converter:  converter,
	}
}

// RegisterPartner adds a partner and starts its drain loop under ctx.
func (r *Replicator) RegisterPartner(ctx context.Context, p *Partner) {
	r.mu.Lock()
	if p.Anonymous {
		r.anonymous = append(r.anonymous, p)
	} else {
		r.partners[p.Name] = p
	}
	r.mu.Unlock()
	go p.Run(ctx)
}

// Configure sets the replicate targets and deadband/step filter for point,
// resetting the filter's remembered baseline per spec.md's metadata-reload
// rule.
func (r *Replicator) Configure(point value.PointUUID, targets []Target, filter Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[point.Undeleted()] = targets
	f := filter
	r.filters[point.Undeleted()] = &f
}

func (r *Replicator) filterFor(point value.PointUUID) *Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filters[point.Undeleted()]
}

func (r *Replicator) targetsFor(point value.PointUUID) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.targets[point.Undeleted()]
}

// Replicate implements updater.Replicator: it fans a committed value out
// to every anonymous partner, plus any named partner the point's replicate
// targets route to.
func (r *Replicator) Replicate(ctx context.Context, v value.VersionedValue, deleted bool) {
	point := v.PointUUID.Undeleted()

	if r.classifier != nil && !r.classifier.IsReplicated(point) {
		return
	}

	if !deleted {
		if f := r.filterFor(point); f != nil && !f.Worth(v) {
			return
		}
	}

	rv := value.FromVersioned(v)
	rv.Deleted = deleted

	r.mu.RLock()
	anon := append([]*Partner(nil), r.anonymous...)
	r.mu.RUnlock()
	for _, p := range anon {
		p.enqueue(rv)
	}

	for _, t := range r.targetsFor(point) {
		r.mu.RLock()
		partner, ok := r.partners[t.Partner]
		r.mu.RUnlock()
		if !ok {
			continue
		}

		out := rv
		out.PointUUID = t.Point
		if t.Convert && r.converter != nil {
			out.VersionedValue = r.converter.Normalize(t.Point, out.VersionedValue)
		}
		partner.enqueue(out)
	}
}

// Close stops every registered partner from accepting further values.
func (r *Replicator) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.anonymous {
		p.Close()
	}
	for _, p := range r.partners {
		p.Close()
	}
}
