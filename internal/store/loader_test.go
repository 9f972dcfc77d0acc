package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pvcore/pointstore/internal/config"
	"github.com/pvcore/pointstore/internal/value"
)

func TestLoadCatalogRegistersPoints(t *testing.T) {
	u := value.NewPointUUID(uuid.UUID{1})

	cat, err := LoadCatalog([]config.PointParams{
		{UUID: u.String(), States: "temperature", Replicated: true, NullRemoves: true, LifeTimeSec: 60},
	})
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	m, ok := cat.Get(u)
	if !ok {
		t.Fatal("expected the loaded point to be registered")
	}
	if m.Group != "temperature" {
		t.Fatalf("expected group temperature, got %q", m.Group)
	}
	if !m.Replicated || !m.NullRemovesFlag {
		t.Fatal("expected replicated and null-removes flags to carry over")
	}
	if m.LifeTime != 60*time.Second {
		t.Fatalf("expected life time 60s, got %v", m.LifeTime)
	}
	if !m.Permissions().CheckRead(nil) || !m.Permissions().CheckWrite(nil) {
		t.Fatal("expected the default allow-all permissions")
	}
}

func TestLoadCatalogRejectsInvalidUUID(t *testing.T) {
	if _, err := LoadCatalog([]config.PointParams{{UUID: "not-a-uuid"}}); err == nil {
		t.Fatal("expected an error for an unparseable point uuid")
	}
}
