package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pvcore/pointstore/internal/session"
	"github.com/pvcore/pointstore/internal/store"
	"github.com/pvcore/pointstore/internal/subscription"
)

// clientSession binds a live subscription.SessionID to the identity that
// opened it and the store.Session handle the rest of the RPC surface is
// invoked through.
type clientSession struct {
	ID        subscription.SessionID
	Subject   string
	Store     *store.Session
	CreatedAt time.Time
	ExpiresAt time.Time
}

// sessionRegistry tracks live client sessions in memory. A session binds
// exactly one subscription.SessionID to one authenticated subject for its
// lifetime; concurrent reads from request handlers are the common case.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[subscription.SessionID]*clientSession
	ttl      time.Duration
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{sessions: make(map[subscription.SessionID]*clientSession), ttl: ttl}
}

// global registry, mirroring the teacher's package-level session store
var globalSessions = newSessionRegistry(30 * time.Minute)

func (r *sessionRegistry) begin(identity session.Identity, st *store.Store) *clientSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := subscription.SessionID(uuid.New().String())
	cs := &clientSession{
		ID:        id,
		Subject:   identity.Subject(),
		Store:     store.NewSession(st, id, identity),
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(r.ttl),
	}
	r.sessions[id] = cs
	r.cleanupExpiredLocked()
	return cs
}

func (r *sessionRegistry) get(id subscription.SessionID) (*clientSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cs, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if time.Now().UTC().After(cs.ExpiresAt) {
		return nil, false
	}
	return cs, true
}

func (r *sessionRegistry) end(id subscription.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.sessions[id]
	if exists {
		delete(r.sessions, id)
	}
	return exists
}

func (r *sessionRegistry) cleanupExpiredLocked() {
	now := time.Now().UTC()
	for id, cs := range r.sessions {
		if now.After(cs.ExpiresAt) {
			delete(r.sessions, id)
		}
	}
}

type sessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func toSessionResponse(cs *clientSession) sessionResponse {
	return sessionResponse{ID: string(cs.ID), CreatedAt: cs.CreatedAt, ExpiresAt: cs.ExpiresAt}
}

// BeginSession handles POST /v1/sessions, opening a client session bound to
// the caller's authenticated identity.
func (s *Server) BeginSession(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if id == nil {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	cs := globalSessions.begin(id, s.Store)

	log.Ctx(r.Context()).Info().Str("session_id", string(cs.ID)).Str("subject", cs.Subject).
		Time("expires_at", cs.ExpiresAt).Msg("session opened")

	writeJSON(w, http.StatusCreated, toSessionResponse(cs))
}

// EndSession handles DELETE /v1/sessions/{id}.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "id")
	if rawID == "" {
		writeError(w, r, http.StatusBadRequest, "session id required")
		return
	}

	id := IdentityFromContext(r.Context())
	if id == nil {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	cs, ok := globalSessions.get(subscription.SessionID(rawID))
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found or expired")
		return
	}
	if cs.Subject != id.Subject() {
		writeError(w, r, http.StatusForbidden, "session does not belong to authenticated identity")
		return
	}

	globalSessions.end(cs.ID)
	log.Ctx(r.Context()).Info().Str("session_id", rawID).Str("subject", id.Subject()).Msg("session ended")
	w.WriteHeader(http.StatusNoContent)
}

// GetSession handles GET /v1/sessions/{id}, mostly useful for debugging.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "id")
	if rawID == "" {
		writeError(w, r, http.StatusBadRequest, "session id required")
		return
	}

	id := IdentityFromContext(r.Context())
	if id == nil {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	cs, ok := globalSessions.get(subscription.SessionID(rawID))
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found or expired")
		return
	}
	if cs.Subject != id.Subject() {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(cs))
}
