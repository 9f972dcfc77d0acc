// Package updater implements the update pipeline: point/state resolution,
// permission and action computation, null-removes conversion, and dispatch
// to a backend.Writer plus the Notifier/Replicator fan-out, all under the
// store's fair suspend/resume lock.
package updater

import (
	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/value"
)

// Action is the permission action computed for one update, per spec.md
// §4.4 step 2.
type Action int

const (
	ActionWrite Action = iota
	ActionProcess
	ActionDelete
	ActionInject
)

// Point is the updater's view of a resolved point: everything
// query.PointHandle exposes, plus the per-point parameters the pipeline
// needs (null-removes, input relations, state group membership).
type Point interface {
	query.PointHandle
	HasInputRelations() bool
	NullRemoves() bool
	StateGroup() string
}

// Resolver resolves a point reference by UUID.
type Resolver interface {
	ResolveByUUID(u value.PointUUID) (Point, bool)
}

// actionFor implements step 2's action computation: PROCESS when the point
// has input relations, else DELETE on a tombstone update, WRITE for a known
// point, INJECT when the point is unresolved.
func actionFor(p Point, isDelete bool) Action {
	switch {
	case p != nil && p.HasInputRelations():
		return ActionProcess
	case isDelete:
		return ActionDelete
	case p != nil:
		return ActionWrite
	default:
		return ActionInject
	}
}
