// Package subscription implements the subscription manager: per-session
// bounded delivery queues fed in commit order, subscribe/unsubscribe
// bookkeeping, and the deliver/interrupt blocking-consumer protocol.
package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/pvcore/pointstore/internal/apperr"
	"github.com/pvcore/pointstore/internal/metrics"
	"github.com/pvcore/pointstore/internal/value"
)

// SessionID identifies a subscribing session.
type SessionID string

// defaultQueueLimit is the default bound on a session's pending delivery queue
// before it is marked lost.
const defaultQueueLimit = 1000

// sentinel is pushed to a session's queue by Interrupt to wake a blocked
// Deliver without a value.
type sentinel struct{}

type session struct {
	mu     sync.Mutex
	waitCh chan struct{} // closed and replaced whenever queue/lost changes
	queue  []interface{} // value.ReplicatedValue or sentinel
	lost   bool
	points map[value.PointUUID]struct{}
	limit  int
}

func newSession(limit int) *session {
	return &session{points: make(map[value.PointUUID]struct{}), limit: limit, waitCh: make(chan struct{})}
}

// wake closes the current waitCh (broadcasting to every blocked Deliver)
// and replaces it. Caller must hold s.mu.
func (s *session) wake() {
	close(s.waitCh)
	s.waitCh = make(chan struct{})
}

func (s *session) push(v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lost {
		return
	}
	if len(s.queue) >= s.limit {
		s.lost = true
		s.queue = nil
		s.wake()
		metrics.SubscriptionQueueDrops.Inc()
		return
	}
	s.queue = append(s.queue, v)
	s.wake()
}

// Manager is the subscription manager: a registry of sessions, each with
// its own subscribed point set and bounded delivery queue.
type Manager struct {
	mu       sync.RWMutex
	sessions map[SessionID]*session
	byPoint  map[value.PointUUID]map[SessionID]struct{}
	latest   LatestValueSource
	queueCap int
}

// LatestValueSource fetches the most recently committed value for a point,
// used to seed a subscribe response per spec.md §4.5.
type LatestValueSource interface {
	Latest(ctx context.Context, point value.PointUUID) (value.VersionedValue, bool, error)
}

// New returns an empty Manager. queueCap bounds each session's delivery
// queue (0 selects the default of 1000).
func New(latest LatestValueSource, queueCap int) *Manager {
	if queueCap <= 0 {
		queueCap = defaultQueueLimit
	}
	return &Manager{
		sessions: make(map[SessionID]*session),
		byPoint:  make(map[value.PointUUID]map[SessionID]struct{}),
		latest:   latest,
		queueCap: queueCap,
	}
}

func (m *Manager) sessionFor(id SessionID) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = newSession(m.queueCap)
		m.sessions[id] = s
	}
	return s
}

// Subscribe registers (session, uuid) for every uuid and returns the latest
// committed value per point (absent when the point has none yet).
func (m *Manager) Subscribe(ctx context.Context, id SessionID, uuids []value.PointUUID) ([]*value.VersionedValue, []*apperr.Error) {
	s := m.sessionFor(id)
	values := make([]*value.VersionedValue, len(uuids))
	errs := make([]*apperr.Error, len(uuids))

	for i, u := range uuids {
		m.mu.Lock()
		s.mu.Lock()
		s.points[u] = struct{}{}
		s.mu.Unlock()
		if m.byPoint[u] == nil {
			m.byPoint[u] = make(map[SessionID]struct{})
		}
		m.byPoint[u][id] = struct{}{}
		m.mu.Unlock()

		if m.latest == nil {
			continue
		}
		v, ok, err := m.latest.Latest(ctx, u)
		if err != nil {
			errs[i] = apperr.Wrap(apperr.StoreAccess, "fetching latest value", err)
			continue
		}
		if ok {
			cp := v
			values[i] = &cp
		}
	}
	return values, errs
}

// Unsubscribe removes (session, uuid) for every uuid.
func (m *Manager) Unsubscribe(id SessionID, uuids []value.PointUUID) []*apperr.Error {
	errs := make([]*apperr.Error, len(uuids))
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		for i := range errs {
			errs[i] = apperr.New(apperr.BadHandle, "unknown session")
		}
		return errs
	}

	for _, u := range uuids {
		s.mu.Lock()
		delete(s.points, u)
		s.mu.Unlock()
		if peers, ok := m.byPoint[u]; ok {
			delete(peers, id)
			if len(peers) == 0 {
				delete(m.byPoint, u)
			}
		}
	}
	return errs
}

// Publish fans v out to every session subscribed to v's point, in the
// commit order the caller (the Notifier) invokes Publish.
func (m *Manager) Publish(v value.ReplicatedValue) {
	m.mu.RLock()
	peers := make([]SessionID, 0, len(m.byPoint[v.PointUUID]))
	for id := range m.byPoint[v.PointUUID] {
		peers = append(peers, id)
	}
	sessions := make([]*session, 0, len(peers))
	for _, id := range peers {
		sessions = append(sessions, m.sessions[id])
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.push(v)
	}
}

// Deliver blocks up to timeout for at least one value, then drains up to
// limit values from the session's queue. Returns ServiceClosed if the
// session has been marked lost (queue overflow) or if the call consumed an
// Interrupt sentinel without draining any value, and BadHandle if the
// session doesn't exist.
func (m *Manager) Deliver(ctx context.Context, id SessionID, limit int, timeout time.Duration) ([]value.ReplicatedValue, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.New(apperr.BadHandle, "unknown session")
	}

	deadline := time.Now().Add(timeout)
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) == 0 && !s.lost {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		ch := s.waitCh
		s.mu.Unlock()
		select {
		case <-ch:
		case <-time.After(remaining):
			s.mu.Lock()
			return nil, nil
		case <-ctx.Done():
			s.mu.Lock()
			return nil, ctx.Err()
		}
		s.mu.Lock()
	}
	if s.lost {
		return nil, apperr.New(apperr.ServiceClosed, "subscription queue overflowed")
	}

	n := limit
	if n <= 0 || n > len(s.queue) {
		n = len(s.queue)
	}
	out := make([]value.ReplicatedValue, 0, n)
	rest := s.queue[:0]
	interrupted := false
	for i, item := range s.queue {
		if _, isSentinel := item.(sentinel); isSentinel {
			interrupted = true
			continue
		}
		if i < n {
			out = append(out, item.(value.ReplicatedValue))
		} else {
			rest = append(rest, item)
		}
	}
	s.queue = rest
	if interrupted && len(out) == 0 {
		return nil, apperr.New(apperr.ServiceClosed, "deliver interrupted")
	}
	return out, nil
}

// Interrupt wakes a session's blocked Deliver call with a sentinel; the
// Deliver call that consumes it returns ServiceClosed unless it also drained
// values. The session stays subscribed and later Deliver calls proceed
// normally.
func (m *Manager) Interrupt(id SessionID) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, sentinel{})
	s.wake()
	s.mu.Unlock()
}
