package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pvcore/pointstore/internal/value"
)

type recordingPublisher struct {
	got []value.ReplicatedValue
}

func (r *recordingPublisher) Publish(v value.ReplicatedValue) {
	r.got = append(r.got, v)
}

func TestFanoutNotifyPublishesInOrder(t *testing.T) {
	rec := &recordingPublisher{}
	f := New(rec)
	u := value.NewPointUUID(uuid.New())

	for i := 0; i < 3; i++ {
		vv := value.VersionedValue{
			PointValue: value.PointValue{PointUUID: u, Stamp: value.Stamp(i)},
			Version:    value.Version(i + 1),
		}
		f.Notify(context.Background(), vv, false)
	}

	if len(rec.got) != 3 {
		t.Fatalf("expected 3 published values, got %d", len(rec.got))
	}
	for i, v := range rec.got {
		if v.Stamp != value.Stamp(i) {
			t.Errorf("index %d: expected stamp %d, got %d", i, i, v.Stamp)
		}
		if v.Deleted {
			t.Errorf("index %d: expected live value, got deleted", i)
		}
	}
}

func TestFanoutNotifyMarksDeleted(t *testing.T) {
	rec := &recordingPublisher{}
	f := New(rec)
	u := value.NewPointUUID(uuid.New())
	d := value.NewDeleted(u, 5, 1)

	f.Notify(context.Background(), d.VersionedValue, true)

	if len(rec.got) != 1 || !rec.got[0].Deleted {
		t.Fatalf("expected one deleted published value, got %+v", rec.got)
	}
}

func TestFanoutWithNilPublisherIsNoop(t *testing.T) {
	f := New(nil)
	u := value.NewPointUUID(uuid.New())
	vv := value.VersionedValue{PointValue: value.PointValue{PointUUID: u, Stamp: 1}, Version: 1}
	f.Notify(context.Background(), vv, false)
}
