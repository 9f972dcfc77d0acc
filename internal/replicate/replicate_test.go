package replicate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pvcore/pointstore/internal/value"
)

type recordingSink struct {
	mu      sync.Mutex
	batches [][]value.ReplicatedValue
}

func (s *recordingSink) Send(ctx context.Context, batch []value.ReplicatedValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]value.ReplicatedValue(nil), batch...)
	s.batches = append(s.batches, cp)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func newUUID() value.PointUUID {
	return value.NewPointUUID(uuid.New())
}

func waitForCount(t *testing.T, sink *recordingSink, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if sink.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected sink to receive %d values, got %d", want, sink.count())
}

func TestReplicateFansOutToAnonymousPartner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := New(nil, nil)
	sink := &recordingSink{}
	r.RegisterPartner(ctx, NewPartner("", true, 0, sink, zerolog.Nop()))

	u := newUUID()
	v := value.VersionedValue{PointValue: value.PointValue{PointUUID: u, Stamp: 1}, Version: 1}
	r.Replicate(ctx, v, false)

	waitForCount(t, sink, 1)
}

func TestReplicateRoutesToNamedPartnerWithMorphedPointRef(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := New(nil, nil)
	sink := &recordingSink{}
	r.RegisterPartner(ctx, NewPartner("hist", false, 0, sink, zerolog.Nop()))

	source := newUUID()
	target := newUUID()
	r.Configure(source, []Target{{Partner: "hist", Point: target}}, Filter{})

	v := value.VersionedValue{PointValue: value.PointValue{PointUUID: source, Stamp: 5}, Version: 1}
	r.Replicate(ctx, v, false)

	waitForCount(t, sink, 1)

	sink.mu.Lock()
	got := sink.batches[0][0]
	sink.mu.Unlock()
	if got.PointUUID != target {
		t.Errorf("expected point reference morphed to target %+v, got %+v", target, got.PointUUID)
	}
}

func TestReplicateSkipsPointsNotClassifiedAsReplicated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := New(classifierFunc(func(value.PointUUID) bool { return false }), nil)
	sink := &recordingSink{}
	r.RegisterPartner(ctx, NewPartner("", true, 0, sink, zerolog.Nop()))

	v := value.VersionedValue{PointValue: value.PointValue{PointUUID: newUUID(), Stamp: 1}, Version: 1}
	r.Replicate(ctx, v, false)

	time.Sleep(20 * time.Millisecond)
	if sink.count() != 0 {
		t.Errorf("expected no replication for an unclassified point, got %d", sink.count())
	}
}

type classifierFunc func(value.PointUUID) bool

func (f classifierFunc) IsReplicated(u value.PointUUID) bool { return f(u) }

func TestFilterSuppressesWithinDeadband(t *testing.T) {
	u := newUUID()
	r := New(nil, nil)
	r.Configure(u, nil, Filter{Deadband: 1.0})

	dv := value.Double(10)
	first := value.VersionedValue{PointValue: value.PointValue{PointUUID: u, Stamp: 1, Value: &dv}, Version: 1}
	close := value.Double(10.2)
	second := value.VersionedValue{PointValue: value.PointValue{PointUUID: u, Stamp: 2, Value: &close}, Version: 2}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &recordingSink{}
	r.RegisterPartner(ctx, NewPartner("", true, 0, sink, zerolog.Nop()))

	r.Replicate(ctx, first, false)
	waitForCount(t, sink, 1)
	r.Replicate(ctx, second, false)
	time.Sleep(20 * time.Millisecond)
	if sink.count() != 1 {
		t.Errorf("expected second value to be suppressed by deadband, sink has %d", sink.count())
	}
}

func TestFilterResetClearsBaseline(t *testing.T) {
	f := &Filter{Deadband: 5}
	dv := value.Double(100)
	v := value.VersionedValue{Version: 1}
	v.Value = &dv
	if !f.Worth(v) {
		t.Fatal("first value should always pass")
	}
	if f.Worth(v) {
		t.Fatal("identical second value should be suppressed")
	}
	f.Reset()
	if !f.Worth(v) {
		t.Fatal("value should pass again after Reset")
	}
}
