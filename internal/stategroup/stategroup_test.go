package stategroup

import (
	"testing"

	"github.com/pvcore/pointstore/internal/apperr"
	"github.com/pvcore/pointstore/internal/value"
)

func TestResolveNameFromOwnGroup(t *testing.T) {
	alarms := NewGroup("alarms", []value.State{{Code: 0, Name: "OK"}, {Code: 1, Name: "ALARM"}})
	r := NewResolver([]*Group{alarms})

	s := value.State{Code: 1}
	if err := r.ResolveName("alarms", &s); err != nil {
		t.Fatalf("ResolveName: %v", err)
	}
	if s.Name != "ALARM" {
		t.Errorf("Name = %q, want ALARM", s.Name)
	}
}

func TestResolveFallsBackToGlobalGroup(t *testing.T) {
	global := NewGroup("", []value.State{{Code: 9, Name: "OFFLINE"}})
	alarms := NewGroup("alarms", []value.State{{Code: 0, Name: "OK"}})
	r := NewResolver([]*Group{global, alarms})

	s := value.State{Code: 9}
	if err := r.ResolveName("alarms", &s); err != nil {
		t.Fatalf("ResolveName: %v", err)
	}
	if s.Name != "OFFLINE" {
		t.Errorf("Name = %q, want OFFLINE (from global fallback)", s.Name)
	}
}

func TestResolveCodeSymmetric(t *testing.T) {
	alarms := NewGroup("alarms", []value.State{{Code: 0, Name: "OK"}, {Code: 1, Name: "ALARM"}})
	r := NewResolver([]*Group{alarms})

	s := value.State{Name: "ALARM"}
	if err := r.ResolveCode("alarms", &s); err != nil {
		t.Fatalf("ResolveCode: %v", err)
	}
	if s.Code != 1 {
		t.Errorf("Code = %d, want 1", s.Code)
	}
}

func TestResolveUnknownReturnsUnresolvedState(t *testing.T) {
	alarms := NewGroup("alarms", []value.State{{Code: 0, Name: "OK"}})
	r := NewResolver([]*Group{alarms})

	s := value.State{Code: 99}
	err := r.ResolveName("alarms", &s)
	if err == nil {
		t.Fatal("expected an error for an unknown code")
	}
	ae, ok := err.(*apperr.Error)
	if !ok || ae.Kind != apperr.UnresolvedState {
		t.Errorf("expected UnresolvedState kind, got %v", err)
	}
}
