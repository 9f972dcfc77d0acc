package binding

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pvcore/pointstore/internal/value"
)

func newUUID() value.PointUUID { return value.NewPointUUID(uuid.New()) }

func TestBindCreatesBinding(t *testing.T) {
	idx := New()
	server := newUUID()
	client := newUUID()

	got := idx.Bind([]Request{{Name: "sensor.a", ClientUUID: &client, ServerUUID: &server}})
	if len(got) != 1 {
		t.Fatalf("got %d bindings, want 1", len(got))
	}
	if got[0].Name != "sensor.a" {
		t.Errorf("Name = %q, want sensor.a", got[0].Name)
	}

	b, ok := idx.ByName("sensor.a")
	if !ok || !b.ServerUUID.Equal(server) {
		t.Fatalf("ByName did not resolve expected binding: %+v ok=%v", b, ok)
	}
}

func TestBindWithoutRebindReturnsExisting(t *testing.T) {
	idx := New()
	server := newUUID()
	client := newUUID()
	idx.Bind([]Request{{Name: "sensor.a", ClientUUID: &client, ServerUUID: &server}})

	other := newUUID()
	got := idx.Bind([]Request{{Name: "sensor.a", ClientUUID: &other}})
	if !got[0].ClientUUID.Equal(client) {
		t.Errorf("expected existing binding kept, got ClientUUID = %v", got[0].ClientUUID)
	}
}

func TestRebindReplacesMapping(t *testing.T) {
	idx := New()
	server := newUUID()
	client := newUUID()
	idx.Bind([]Request{{Name: "sensor.a", ClientUUID: &client, ServerUUID: &server}})

	newClient := newUUID()
	got := idx.Bind([]Request{{Name: "sensor.a", ClientUUID: &newClient, ServerUUID: &server, Rebind: true}})
	if !got[0].ClientUUID.Equal(newClient) {
		t.Errorf("rebind did not replace client uuid: %v", got[0].ClientUUID)
	}

	if _, ok := idx.ByClientUUID(client); ok {
		t.Error("old client uuid mapping should be gone after rebind")
	}
}

func TestRemoveReturnsTrueOnlyWhenLastNameForServer(t *testing.T) {
	idx := New()
	server := newUUID()
	c1, c2 := newUUID(), newUUID()
	idx.Bind([]Request{
		{Name: "sensor.a", ClientUUID: &c1, ServerUUID: &server},
		{Name: "sensor.b", ClientUUID: &c2, ServerUUID: &server},
	})

	if idx.Remove("sensor.a") {
		t.Error("Remove should return false: sensor.b still bound to the same server uuid")
	}
	if !idx.Remove("sensor.b") {
		t.Error("Remove should return true: no names remain bound to the server uuid")
	}
}

func TestSelectByPattern(t *testing.T) {
	idx := New()
	for _, n := range []string{"sensor.a", "sensor.b", "other.c"} {
		u := newUUID()
		idx.Bind([]Request{{Name: n, ClientUUID: &u, ServerUUID: &u}})
	}

	p, err := CompilePattern(`^sensor\.`)
	if err != nil {
		t.Fatalf("CompilePattern: %v", err)
	}
	matches := idx.Select(p)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
}
