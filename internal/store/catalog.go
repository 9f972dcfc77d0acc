// Package store is the top-level façade wiring the backend, binding index,
// state group resolver, update pipeline, subscription manager, notifier,
// replicator, and archiver together behind the session.RPC surface a
// transport adapter calls into.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/updater"
	"github.com/pvcore/pointstore/internal/value"
)

// PointMeta is one point's resolved metadata: everything the cursor,
// updater, replicator, and archiver need without a config round-trip on
// every call. It implements both query.PointHandle and updater.Point.
type PointMeta struct {
	Point value.PointUUID

	SyncSchedule    query.Sync
	Perms           query.Permissions
	InputRelations  bool
	NullRemovesFlag bool
	Group           string
	Replicated      bool
	LifeTime        time.Duration
}

// UUID implements query.PointHandle.
func (p *PointMeta) UUID() value.PointUUID { return p.Point }

// SyncCapable implements query.PointHandle.
func (p *PointMeta) SyncCapable() bool { return p.SyncSchedule != nil }

// Sync implements query.PointHandle.
func (p *PointMeta) Sync() query.Sync { return p.SyncSchedule }

// Permissions implements query.PointHandle.
func (p *PointMeta) Permissions() query.Permissions { return p.Perms }

// HasInputRelations implements updater.Point.
func (p *PointMeta) HasInputRelations() bool { return p.InputRelations }

// NullRemoves implements updater.Point.
func (p *PointMeta) NullRemoves() bool { return p.NullRemovesFlag }

// StateGroup implements updater.Point.
func (p *PointMeta) StateGroup() string { return p.Group }

// Catalog is the in-memory registry of every point's metadata, keyed by
// undeleted uuid. It implements updater.Resolver, replicate.PointClassifier,
// archive.LifeTimeSource, and cursor.PermissionsResolver, so the rest of the
// core depends on a narrow interface rather than this concrete type.
type Catalog struct {
	mu     sync.RWMutex
	points map[value.PointUUID]*PointMeta
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{points: make(map[value.PointUUID]*PointMeta)}
}

// Put registers or replaces a point's metadata.
func (c *Catalog) Put(m *PointMeta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points[m.Point.Undeleted()] = m
}

// Remove drops a point's metadata.
func (c *Catalog) Remove(u value.PointUUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.points, u.Undeleted())
}

// Get returns a point's metadata, if registered.
func (c *Catalog) Get(u value.PointUUID) (*PointMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.points[u.Undeleted()]
	return m, ok
}

// ResolveByUUID implements updater.Resolver.
func (c *Catalog) ResolveByUUID(u value.PointUUID) (updater.Point, bool) {
	m, ok := c.Get(u)
	if !ok {
		return nil, false
	}
	return m, true
}

// IsReplicated implements replicate.PointClassifier.
func (c *Catalog) IsReplicated(u value.PointUUID) bool {
	m, ok := c.Get(u)
	return ok && m.Replicated
}

// LifeTimes implements archive.LifeTimeSource.
func (c *Catalog) LifeTimes(ctx context.Context) (map[value.PointUUID]time.Duration, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[value.PointUUID]time.Duration, len(c.points))
	for u, m := range c.points {
		if m.LifeTime > 0 {
			out[u] = m.LifeTime
		}
	}
	return out, nil
}

// PermissionsFor implements cursor.PermissionsResolver.
func (c *Catalog) PermissionsFor(ctx context.Context, u value.PointUUID) query.Permissions {
	m, ok := c.Get(u)
	if !ok {
		return nil
	}
	return m.Perms
}
