// Package memstore is the default in-process backend.Store: an ordered,
// mutex-guarded index per point, sufficient for tests and for small
// deployments that don't need pgstore's durability.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/pvcore/pointstore/internal/backend"
	"github.com/pvcore/pointstore/internal/value"
)

// row is one committed version of a point, ordered first by Stamp then by
// Version so a stable sort.Search can binary-search either axis.
type row struct {
	value.VersionedValue
}

type pointLog struct {
	mu   sync.RWMutex
	rows []row // sorted by (Stamp, Version)
}

func (p *pointLog) insertLocked(r row) {
	i := sort.Search(len(p.rows), func(i int) bool {
		if p.rows[i].Stamp != r.Stamp {
			return p.rows[i].Stamp >= r.Stamp
		}
		return p.rows[i].Version >= r.Version
	})
	if i < len(p.rows) && p.rows[i].Stamp == r.Stamp && p.rows[i].Version == r.Version {
		p.rows[i] = r
		return
	}
	p.rows = append(p.rows, row{})
	copy(p.rows[i+1:], p.rows[i:])
	p.rows[i] = r
}

// Store is a backend.Store holding every point's log in memory.
type Store struct {
	mu     sync.RWMutex
	points map[value.PointUUID]*pointLog
	limit  int
}

// New returns an empty Store. limit caps the number of rows a single
// Responder walk returns before the Cursor must re-open it (0 = unbounded).
func New(limit int) *Store {
	return &Store{points: make(map[value.PointUUID]*pointLog), limit: limit}
}

func (s *Store) logFor(point value.PointUUID, create bool) *pointLog {
	s.mu.RLock()
	l, ok := s.points[point.Undeleted()]
	s.mu.RUnlock()
	if ok || !create {
		return l
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok = s.points[point.Undeleted()]; ok {
		return l
	}
	l = &pointLog{}
	s.points[point.Undeleted()] = l
	return l
}

// Responder opens a read-only walk over point's history.
func (s *Store) Responder(ctx context.Context, point value.PointUUID, reverse bool, pull bool) (backend.Responder, error) {
	l := s.logFor(point, false)
	if l == nil {
		l = &pointLog{}
	}
	return &responder{log: l, reverse: reverse, limit: s.limit}, nil
}

// Writer opens a batch writer for point, creating its log lazily.
func (s *Store) Writer(ctx context.Context, point value.PointUUID) (backend.Writer, error) {
	l := s.logFor(point, true)
	return &writer{log: l}, nil
}

// Close is a no-op; memstore holds no external resources.
func (s *Store) Close(ctx context.Context) error { return nil }
