package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pvcore/pointstore/internal/apperr"
	"github.com/pvcore/pointstore/internal/value"
)

type fakeLatest struct {
	values map[value.PointUUID]value.VersionedValue
}

func (f fakeLatest) Latest(ctx context.Context, point value.PointUUID) (value.VersionedValue, bool, error) {
	v, ok := f.values[point]
	return v, ok, nil
}

func newUUID() value.PointUUID {
	return value.NewPointUUID(uuid.New())
}

func TestSubscribeReturnsLatestValue(t *testing.T) {
	u := newUUID()
	seed := value.VersionedValue{PointValue: value.PointValue{PointUUID: u, Stamp: 7}, Version: 1}
	m := New(fakeLatest{values: map[value.PointUUID]value.VersionedValue{u: seed}}, 0)

	values, errs := m.Subscribe(context.Background(), "s1", []value.PointUUID{u})
	if len(errs) != 1 || errs[0] != nil {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if values[0] == nil || values[0].Stamp != 7 {
		t.Fatalf("expected seeded latest value, got %+v", values[0])
	}
}

func TestSubscribeUnknownPointReturnsNilValue(t *testing.T) {
	u := newUUID()
	m := New(fakeLatest{values: map[value.PointUUID]value.VersionedValue{}}, 0)

	values, errs := m.Subscribe(context.Background(), "s1", []value.PointUUID{u})
	if errs[0] != nil {
		t.Fatalf("unexpected error: %v", errs[0])
	}
	if values[0] != nil {
		t.Errorf("expected nil latest value for unknown point, got %+v", values[0])
	}
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	u := newUUID()
	m := New(nil, 0)
	m.Subscribe(context.Background(), "s1", []value.PointUUID{u})

	rv := value.FromVersioned(value.VersionedValue{PointValue: value.PointValue{PointUUID: u, Stamp: 1}, Version: 1})
	m.Publish(rv)

	out, err := m.Deliver(context.Background(), "s1", 10, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Stamp != 1 {
		t.Fatalf("expected one delivered value, got %+v", out)
	}
}

func TestDeliverTimesOutWithNoValues(t *testing.T) {
	m := New(nil, 0)
	m.Subscribe(context.Background(), "s1", nil)

	start := time.Now()
	out, err := m.Deliver(context.Background(), "s1", 10, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no values, got %+v", out)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("expected Deliver to block for roughly the timeout")
	}
}

func TestUnsubscribeStopsFurtherDelivery(t *testing.T) {
	u := newUUID()
	m := New(nil, 0)
	m.Subscribe(context.Background(), "s1", []value.PointUUID{u})
	m.Unsubscribe("s1", []value.PointUUID{u})

	m.Publish(value.FromVersioned(value.VersionedValue{PointValue: value.PointValue{PointUUID: u, Stamp: 1}, Version: 1}))

	out, err := m.Deliver(context.Background(), "s1", 10, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no delivery after unsubscribe, got %+v", out)
	}
}

func TestQueueOverflowMarksSessionLost(t *testing.T) {
	u := newUUID()
	m := New(nil, 2)
	m.Subscribe(context.Background(), "s1", []value.PointUUID{u})

	for i := 0; i < 5; i++ {
		m.Publish(value.FromVersioned(value.VersionedValue{PointValue: value.PointValue{PointUUID: u, Stamp: value.Stamp(i)}, Version: value.Version(i + 1)}))
	}

	_, err := m.Deliver(context.Background(), "s1", 10, 20*time.Millisecond)
	ae, ok := err.(*apperr.Error)
	if !ok || ae.Kind != apperr.ServiceClosed {
		t.Fatalf("expected ServiceClosed after overflow, got %v", err)
	}
}

func TestInterruptWakesBlockedDeliver(t *testing.T) {
	m := New(nil, 0)
	m.Subscribe(context.Background(), "s1", nil)

	done := make(chan struct{})
	go func() {
		m.Deliver(context.Background(), "s1", 10, 5*time.Second)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	m.Interrupt("s1")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected Interrupt to unblock Deliver promptly")
	}
}
