package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/session"
	"github.com/pvcore/pointstore/internal/value"
)

const defaultPullTimeout = 30 * time.Second
const defaultDeliverTimeout = 30 * time.Second

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func durationMs(ms int64, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// Select handles POST /v1/select: a batch of store-values queries, each
// answered independently.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var queries []*query.StoreValuesQuery
	if !decodeJSON(w, r, &queries) {
		return
	}

	cs := clientSessionFromContext(r.Context())
	results, err := cs.Store.Select(r.Context(), queries)
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type pullReq struct {
	Query     *query.StoreValuesQuery `json:"query"`
	TimeoutMs int64                   `json:"timeoutMs,omitempty"`
}

// Pull handles POST /v1/pull: a single query that may block up to the
// supplied timeout waiting for data.
func (s *Server) Pull(w http.ResponseWriter, r *http.Request) {
	var req pullReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Query == nil {
		writeError(w, r, http.StatusBadRequest, "query is required")
		return
	}

	cs := clientSessionFromContext(r.Context())
	resp, err := cs.Store.Pull(r.Context(), req.Query, durationMs(req.TimeoutMs, defaultPullTimeout))
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update handles POST /v1/update: a batch of point value writes.
func (s *Server) Update(w http.ResponseWriter, r *http.Request) {
	var values []value.PointValue
	if !decodeJSON(w, r, &values) {
		return
	}

	cs := clientSessionFromContext(r.Context())
	results, err := cs.Store.Update(r.Context(), values)
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type purgeReq struct {
	UUIDs    []value.PointUUID `json:"uuids"`
	Interval query.Interval    `json:"interval"`
}

// Purge handles POST /v1/purge: physical row removal within an interval,
// per point.
func (s *Server) Purge(w http.ResponseWriter, r *http.Request) {
	var req purgeReq
	if !decodeJSON(w, r, &req) {
		return
	}

	cs := clientSessionFromContext(r.Context())
	results, err := cs.Store.Purge(r.Context(), req.UUIDs, req.Interval)
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Subscribe handles POST /v1/subscribe.
func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	var uuids []value.PointUUID
	if !decodeJSON(w, r, &uuids) {
		return
	}

	cs := clientSessionFromContext(r.Context())
	results, err := cs.Store.Subscribe(r.Context(), uuids)
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Unsubscribe handles POST /v1/unsubscribe.
func (s *Server) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var uuids []value.PointUUID
	if !decodeJSON(w, r, &uuids) {
		return
	}

	cs := clientSessionFromContext(r.Context())
	results := cs.Store.Unsubscribe(r.Context(), uuids)
	writeJSON(w, http.StatusOK, results)
}

// Deliver handles POST /v1/deliver: the long-poll REST variant of delivery.
// Consumers that want push semantics over a single connection instead use
// the WebSocket endpoint in deliver_ws.go.
func (s *Server) Deliver(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 256)
	timeoutMs := int64(parseIntQuery(r, "timeoutMs", int(defaultDeliverTimeout.Milliseconds())))

	cs := clientSessionFromContext(r.Context())
	values, err := cs.Store.Deliver(r.Context(), limit, durationMs(timeoutMs, defaultDeliverTimeout))
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// GetPointBindings handles POST /v1/bindings.
func (s *Server) GetPointBindings(w http.ResponseWriter, r *http.Request) {
	var reqs []session.BindingRequest
	if !decodeJSON(w, r, &reqs) {
		return
	}

	cs := clientSessionFromContext(r.Context())
	results, err := cs.Store.GetPointBindings(r.Context(), reqs)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// GetStateGroups handles GET /v1/stategroups.
func (s *Server) GetStateGroups(w http.ResponseWriter, r *http.Request) {
	cs := clientSessionFromContext(r.Context())
	names, err := cs.Store.GetStateGroups(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// Resolve handles POST /v1/resolve.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	var req session.StateResolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cs := clientSessionFromContext(r.Context())
	st, err := cs.Store.Resolve(r.Context(), req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type impersonateReq struct {
	Subject string `json:"subject"`
}

// Impersonate handles POST /v1/impersonate.
func (s *Server) Impersonate(w http.ResponseWriter, r *http.Request) {
	var req impersonateReq
	if !decodeJSON(w, r, &req) {
		return
	}

	cs := clientSessionFromContext(r.Context())
	id, err := cs.Store.Impersonate(r.Context(), req.Subject)
	if err != nil {
		writeError(w, r, http.StatusForbidden, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"subject": id.Subject()})
}

// Interrupt handles POST /v1/interrupt: wakes any in-flight Deliver on this
// session (Pull is a single bounded call and is not affected).
func (s *Server) Interrupt(w http.ResponseWriter, r *http.Request) {
	cs := clientSessionFromContext(r.Context())
	if err := cs.Store.Interrupt(r.Context()); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Probe handles GET /v1/probe: a liveness check for this session's backend.
func (s *Server) Probe(w http.ResponseWriter, r *http.Request) {
	cs := clientSessionFromContext(r.Context())
	if err := cs.Store.Probe(r.Context()); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("probe failed")
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
