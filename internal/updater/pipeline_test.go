package updater

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pvcore/pointstore/internal/backend/memstore"
	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/value"
)

type fakeIdentity struct{ name string }

func (f fakeIdentity) Subject() string { return f.name }

type allowAll struct{}

func (allowAll) CheckRead(query.Identity) bool  { return true }
func (allowAll) CheckWrite(query.Identity) bool { return true }

type denyAll struct{}

func (denyAll) CheckRead(query.Identity) bool  { return false }
func (denyAll) CheckWrite(query.Identity) bool { return false }

type fakePoint struct {
	uuid        value.PointUUID
	nullRemoves bool
	group       string
	perm        query.Permissions
}

func (p fakePoint) UUID() value.PointUUID       { return p.uuid }
func (p fakePoint) SyncCapable() bool           { return false }
func (p fakePoint) Sync() query.Sync            { return nil }
func (p fakePoint) Permissions() query.Permissions { return p.perm }
func (p fakePoint) HasInputRelations() bool     { return false }
func (p fakePoint) NullRemoves() bool           { return p.nullRemoves }
func (p fakePoint) StateGroup() string          { return p.group }

type fakeResolver struct {
	points map[value.PointUUID]Point
}

func (r fakeResolver) ResolveByUUID(u value.PointUUID) (Point, bool) {
	p, ok := r.points[u.Undeleted()]
	return p, ok
}

func newTestPipeline(t *testing.T, points map[value.PointUUID]Point) (*Pipeline, *memstore.Store) {
	t.Helper()
	store := memstore.New(0)
	lock := &SuspendLock{}
	p := New(store, fakeResolver{points: points}, nil, nil, nil, nil, lock, Config{})
	return p, store
}

func TestUpdateUnknownPointYieldsPointUnknown(t *testing.T) {
	p, _ := newTestPipeline(t, map[value.PointUUID]Point{})
	u := value.NewPointUUID(uuid.New())
	results := p.Update(context.Background(), fakeIdentity{"alice"}, []value.PointValue{
		{PointUUID: u, Stamp: 1},
	})
	if len(results) != 1 || results[0].Exception == nil {
		t.Fatalf("expected PointUnknown exception, got %+v", results)
	}
}

func TestUpdateInsertsValue(t *testing.T) {
	u := value.NewPointUUID(uuid.New())
	pt := fakePoint{uuid: u, perm: allowAll{}}
	p, _ := newTestPipeline(t, map[value.PointUUID]Point{u.Undeleted(): pt})

	v := value.Double(42)
	results := p.Update(context.Background(), fakeIdentity{"alice"}, []value.PointValue{
		{PointUUID: u, Stamp: 10, Value: &v},
	})
	if len(results) != 1 || results[0].Exception != nil {
		t.Fatalf("unexpected failure: %+v", results)
	}
	if results[0].Value.Version == 0 {
		t.Error("expected a non-zero assigned version")
	}
}

func TestUpdateDeniedPermission(t *testing.T) {
	u := value.NewPointUUID(uuid.New())
	pt := fakePoint{uuid: u, perm: denyAll{}}
	p, _ := newTestPipeline(t, map[value.PointUUID]Point{u.Undeleted(): pt})

	v := value.Double(1)
	results := p.Update(context.Background(), fakeIdentity{"eve"}, []value.PointValue{
		{PointUUID: u, Stamp: 1, Value: &v},
	})
	if len(results) != 1 || results[0].Exception == nil {
		t.Fatal("expected an Unauthorized exception")
	}
}

func TestUpdateNullRemovesConvertsToTombstone(t *testing.T) {
	u := value.NewPointUUID(uuid.New())
	pt := fakePoint{uuid: u, nullRemoves: true, perm: allowAll{}}
	p, _ := newTestPipeline(t, map[value.PointUUID]Point{u.Undeleted(): pt})

	results := p.Update(context.Background(), fakeIdentity{"alice"}, []value.PointValue{
		{PointUUID: u, Stamp: 10},
	})
	if len(results) != 1 || results[0].Exception != nil {
		t.Fatalf("unexpected failure: %+v", results)
	}
	if !results[0].Value.PointUUID.Deleted {
		t.Error("expected a tombstone (deleted uuid flag set) from a null-removes update")
	}
}
