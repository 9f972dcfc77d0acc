package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pvcore/pointstore/internal/apperr"
	"github.com/pvcore/pointstore/internal/backend/memstore"
	"github.com/pvcore/pointstore/internal/binding"
	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/session"
	"github.com/pvcore/pointstore/internal/stategroup"
	"github.com/pvcore/pointstore/internal/subscription"
	"github.com/pvcore/pointstore/internal/value"
)

func newTestStore(t *testing.T) (*Store, *Catalog) {
	t.Helper()
	backendStore := memstore.New(0)
	catalog := NewCatalog()
	states := stategroup.NewResolver(nil)
	s := New(backendStore, binding.New(), states, catalog, nil, nil, nil, nil, Config{})
	return s, catalog
}

func newUUID() value.PointUUID {
	return value.NewPointUUID(uuid.New())
}

func TestSessionUpdateThenSelectRoundTrips(t *testing.T) {
	s, catalog := newTestStore(t)
	point := newUUID()
	catalog.Put(&PointMeta{Point: point})

	sess := NewSession(s, subscription.SessionID("sess-1"), session.NewIdentity("alice"))

	dv := value.Double(42)
	results, err := sess.Update(context.Background(), []value.PointValue{
		{PointUUID: point, Stamp: 1, Value: &dv},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Failed() {
		t.Fatalf("expected a successful update, got %+v", results)
	}

	q := query.NewBuilder().WithPointUUID(point).WithFlags(query.Multiple | query.Forward).Build()
	selResults, err := sess.Select(context.Background(), []*query.StoreValuesQuery{q})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selResults) != 1 || selResults[0].Failed() {
		t.Fatalf("expected a successful select, got %+v", selResults)
	}
	resp := selResults[0].Value
	if resp.Exception != nil {
		t.Fatalf("unexpected exception in response: %v", resp.Exception)
	}
	if len(resp.Values) != 1 || resp.Values[0].Stamp != 1 {
		t.Fatalf("expected the inserted row back, got %+v", resp.Values)
	}
}

func TestSessionUpdateUnknownPointYieldsException(t *testing.T) {
	s, _ := newTestStore(t)
	sess := NewSession(s, subscription.SessionID("sess-1"), session.NewIdentity("alice"))

	results, err := sess.Update(context.Background(), []value.PointValue{
		{PointUUID: newUUID(), Stamp: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || !results[0].Failed() {
		t.Fatalf("expected a failed update for an unknown point, got %+v", results)
	}
}

func TestSessionSubscribeDeliverInterrupt(t *testing.T) {
	s, catalog := newTestStore(t)
	point := newUUID()
	catalog.Put(&PointMeta{Point: point})

	sess := NewSession(s, subscription.SessionID("sess-1"), session.NewIdentity("alice"))

	if _, err := sess.Subscribe(context.Background(), []value.PointUUID{point}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	dv := value.Double(7)
	if _, err := sess.Update(context.Background(), []value.PointValue{{PointUUID: point, Stamp: 5, Value: &dv}}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	delivered, err := sess.Deliver(context.Background(), 10, time.Second)
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if len(delivered) != 1 || delivered[0].Stamp != 5 {
		t.Fatalf("expected the published value back, got %+v", delivered)
	}

	if err := sess.Interrupt(context.Background()); err != nil {
		t.Fatalf("interrupt failed: %v", err)
	}
	_, err = sess.Deliver(context.Background(), 10, time.Second)
	if ae, ok := err.(*apperr.Error); !ok || ae.Kind != apperr.ServiceClosed {
		t.Fatalf("expected ServiceClosed from the interrupted deliver, got %v", err)
	}
}

func TestSessionGetPointBindingsBindsByName(t *testing.T) {
	s, _ := newTestStore(t)
	sess := NewSession(s, subscription.SessionID("sess-1"), session.NewIdentity("alice"))

	server := newUUID()
	results, err := sess.GetPointBindings(context.Background(), []session.BindingRequest{
		{Name: "boiler.temp", ServerUUID: &server},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ServerUUID != server {
		t.Fatalf("expected a binding to the requested server uuid, got %+v", results)
	}
}

func TestSessionResolveFillsCodeFromName(t *testing.T) {
	backendStore := memstore.New(0)
	catalog := NewCatalog()
	states := stategroup.NewResolver([]*stategroup.Group{
		stategroup.NewGroup("", []value.State{{Code: 0, Name: "OFF"}, {Code: 1, Name: "ON"}}),
	})
	s := New(backendStore, nil, states, catalog, nil, nil, nil, nil, Config{})
	sess := NewSession(s, subscription.SessionID("sess-1"), session.NewIdentity("alice"))

	st, err := sess.Resolve(context.Background(), session.StateResolveRequest{State: value.State{Name: "ON"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Code != 1 {
		t.Fatalf("expected code 1 resolved from name ON, got %d", st.Code)
	}
}

func TestSessionPurgeRemovesRows(t *testing.T) {
	s, catalog := newTestStore(t)
	point := newUUID()
	catalog.Put(&PointMeta{Point: point})
	sess := NewSession(s, subscription.SessionID("sess-1"), session.NewIdentity("alice"))

	dv := value.Double(1)
	if _, err := sess.Update(context.Background(), []value.PointValue{{PointUUID: point, Stamp: 1, Value: &dv}}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	cutoff := value.Stamp(2)
	results, err := sess.Purge(context.Background(), []value.PointUUID{point}, query.Interval{Before: &cutoff})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Failed() || results[0].Value != 1 {
		t.Fatalf("expected one row purged, got %+v", results)
	}
}
