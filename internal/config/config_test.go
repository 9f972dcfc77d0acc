package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaultsWithNoEnvironment(t *testing.T) {
	cfg := Load()
	if cfg.ResponseLimit != 1000 {
		t.Errorf("expected default response limit 1000, got %d", cfg.ResponseLimit)
	}
	if cfg.PullSleep != 60*time.Second {
		t.Errorf("expected default pull sleep of 60s, got %v", cfg.PullSleep)
	}
	if cfg.BackendClass != "memstore" {
		t.Errorf("expected default backend class memstore, got %q", cfg.BackendClass)
	}
	if cfg.IsDev() {
		t.Error("expected IsDev false with no ENV set")
	}
}

func TestLoadReadsOverridesFromEnvironment(t *testing.T) {
	t.Setenv("RESPONSE_LIMIT", "50")
	t.Setenv("ENV", "dev")
	t.Setenv("REPLICATOR_PARTNERS", "hist:0,backup:2500")

	cfg := Load()
	if cfg.ResponseLimit != 50 {
		t.Errorf("expected overridden response limit 50, got %d", cfg.ResponseLimit)
	}
	if !cfg.IsDev() {
		t.Error("expected IsDev true with ENV=dev")
	}
	if len(cfg.ReplicatorPartners) != 2 {
		t.Fatalf("expected two configured partners, got %d", len(cfg.ReplicatorPartners))
	}
	if cfg.ReplicatorPartners[0].Name != "hist" || cfg.ReplicatorPartners[0].Queue != 0 {
		t.Errorf("unexpected first partner: %+v", cfg.ReplicatorPartners[0])
	}
	if cfg.ReplicatorPartners[1].Name != "backup" || cfg.ReplicatorPartners[1].Queue != 2500 {
		t.Errorf("unexpected second partner: %+v", cfg.ReplicatorPartners[1])
	}
}

func TestParsePartnersIgnoresBlankEntries(t *testing.T) {
	got := parsePartners("hist:10, ,backup:20")
	if len(got) != 2 {
		t.Fatalf("expected blank entries to be skipped, got %+v", got)
	}
}
