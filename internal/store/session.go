package store

import (
	"context"
	"time"

	"github.com/pvcore/pointstore/internal/apperr"
	"github.com/pvcore/pointstore/internal/binding"
	"github.com/pvcore/pointstore/internal/metrics"
	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/session"
	"github.com/pvcore/pointstore/internal/subscription"
	"github.com/pvcore/pointstore/internal/value"
)

// Session binds one subscription.SessionID and one authenticated Identity to
// a Store, and implements session.RPC — the full operation surface a
// transport adapter (httpapi) calls into.
type Session struct {
	store    *Store
	id       subscription.SessionID
	identity session.Identity
}

// NewSession returns a Session bound to id and identity, backed by store.
func NewSession(store *Store, id subscription.SessionID, identity session.Identity) *Session {
	return &Session{store: store, id: id, identity: identity}
}

var _ session.RPC = (*Session)(nil)

// Select implements session.RPC.
func (s *Session) Select(ctx context.Context, queries []*query.StoreValuesQuery) ([]session.Result[*query.StoreValues], error) {
	out := make([]session.Result[*query.StoreValues], len(queries))
	for i, q := range queries {
		resp, err := s.store.cursor.CreateResponse(ctx, s.identity, q)
		if err != nil {
			out[i] = session.Err[*query.StoreValues](toAppErr(err))
			continue
		}
		out[i] = session.Ok(resp)
	}
	return out, nil
}

// Pull implements session.RPC. A true blocking poll loop (wait for rows to
// arrive, not just a single create_response pass) is left as a simplification
// here: Pull bounds a single CreateResponse call to timeout and returns
// whatever it finds, rather than re-polling the backend until timeout
// elapses or rows appear.
func (s *Session) Pull(ctx context.Context, q *query.StoreValuesQuery, timeout time.Duration) (*query.StoreValues, error) {
	pullCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.store.cursor.CreateResponse(pullCtx, s.identity, q)
}

// Update implements session.RPC.
func (s *Session) Update(ctx context.Context, values []value.PointValue) ([]session.Result[value.VersionedValue], error) {
	results := s.store.pipeline.Update(ctx, s.identity, values)
	out := make([]session.Result[value.VersionedValue], len(results))
	for i, r := range results {
		if r.Exception != nil {
			metrics.UpdatesRejected.Inc()
			out[i] = session.Err[value.VersionedValue](r.Exception)
			continue
		}
		metrics.UpdatesApplied.Inc()
		out[i] = session.Ok(r.Value)
	}
	return out, nil
}

// Purge implements session.RPC.
func (s *Session) Purge(ctx context.Context, uuids []value.PointUUID, iv query.Interval) ([]session.Result[uint64], error) {
	out := make([]session.Result[uint64], len(uuids))
	for i, u := range uuids {
		n, err := s.store.archiver.Purge(ctx, []value.PointUUID{u}, iv)
		if err != nil {
			out[i] = session.Err[uint64](apperr.Wrap(apperr.StoreAccess, "purge failed", err))
			continue
		}
		metrics.PurgedRows.Add(int(n))
		out[i] = session.Ok(n)
	}
	return out, nil
}

// Subscribe implements session.RPC.
func (s *Session) Subscribe(ctx context.Context, uuids []value.PointUUID) ([]session.Result[value.VersionedValue], error) {
	values, errs := s.store.subscription.Subscribe(ctx, s.id, uuids)
	out := make([]session.Result[value.VersionedValue], len(uuids))
	for i := range uuids {
		if errs[i] != nil {
			out[i] = session.Err[value.VersionedValue](errs[i])
			continue
		}
		if values[i] != nil {
			out[i] = session.Ok(*values[i])
			continue
		}
		out[i] = session.Ok(value.VersionedValue{})
	}
	return out, nil
}

// Unsubscribe implements session.RPC.
func (s *Session) Unsubscribe(ctx context.Context, uuids []value.PointUUID) []session.Result[struct{}] {
	errs := s.store.subscription.Unsubscribe(s.id, uuids)
	out := make([]session.Result[struct{}], len(uuids))
	for i, e := range errs {
		if e != nil {
			out[i] = session.Err[struct{}](e)
			continue
		}
		out[i] = session.Ok(struct{}{})
	}
	return out
}

// Deliver implements session.RPC.
func (s *Session) Deliver(ctx context.Context, limit int, timeout time.Duration) ([]value.ReplicatedValue, error) {
	return s.store.subscription.Deliver(ctx, s.id, limit, timeout)
}

// GetPointBindings implements session.RPC.
func (s *Session) GetPointBindings(ctx context.Context, requests []session.BindingRequest) ([]session.BindingResult, error) {
	reqs := make([]binding.Request, len(requests))
	for i, r := range requests {
		reqs[i] = binding.Request{Name: r.Name, ClientUUID: r.ClientUUID, ServerUUID: r.ServerUUID, Rebind: r.Rebind}
	}
	bound := s.store.Bindings.Bind(reqs)
	out := make([]session.BindingResult, len(bound))
	for i, b := range bound {
		out[i] = session.BindingResult{Name: b.Name, ClientUUID: b.ClientUUID, ServerUUID: b.ServerUUID}
	}
	return out, nil
}

// GetStateGroups implements session.RPC.
func (s *Session) GetStateGroups(ctx context.Context) ([]string, error) {
	if s.store.States == nil {
		return nil, nil
	}
	return s.store.States.GroupNames(), nil
}

// Resolve implements session.RPC, filling in whichever of Code/Name the
// request's State is missing, scoped to the named point's state group when
// one is given.
func (s *Session) Resolve(ctx context.Context, req session.StateResolveRequest) (value.State, error) {
	st := req.State
	group := ""
	if req.UUID != nil {
		if m, ok := s.store.Catalog.Get(*req.UUID); ok {
			group = m.Group
		}
	}

	var err error
	switch {
	case st.Name == "" && st.Code != 0:
		err = s.store.States.ResolveName(group, &st)
	case st.Code == 0 && st.Name != "":
		err = s.store.States.ResolveCode(group, &st)
	}
	if err != nil {
		return value.State{}, err
	}
	return st, nil
}

// Impersonate implements session.RPC with a trivial Identity wrapping user.
func (s *Session) Impersonate(ctx context.Context, user string) (session.Identity, error) {
	return session.NewIdentity(user), nil
}

// Interrupt implements session.RPC.
func (s *Session) Interrupt(ctx context.Context) error {
	s.store.subscription.Interrupt(s.id)
	return nil
}

// Probe implements session.RPC as a no-op liveness check.
func (s *Session) Probe(ctx context.Context) error { return nil }

// SupportedValueTypeCodes implements session.RPC.
func (s *Session) SupportedValueTypeCodes() string { return value.SupportedValueTypeCodes() }

func (s *Session) SupportsCount() bool     { return true }
func (s *Session) SupportsDelete() bool    { return true }
func (s *Session) SupportsDeliver() bool   { return true }
func (s *Session) SupportsPull() bool      { return true }
func (s *Session) SupportsPurge() bool     { return true }
func (s *Session) SupportsSubscribe() bool { return true }

func toAppErr(err error) *apperr.Error {
	if ae, ok := err.(*apperr.Error); ok {
		return ae
	}
	return apperr.Wrap(apperr.IllegalState, "operation failed", err)
}
