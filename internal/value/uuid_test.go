package value

import (
	"testing"

	"github.com/google/uuid"
)

func TestPointUUIDDeletedFlag(t *testing.T) {
	base := uuid.MustParse("c1d9b7dc-a1b2-4c3d-9e8f-7a6b5c4d3e2f")

	tests := []struct {
		name    string
		u       PointUUID
		wantStr string
	}{
		{
			name:    "undeleted",
			u:       NewPointUUID(base),
			wantStr: base.String(),
		},
		{
			name:    "deleted",
			u:       NewPointUUID(base).WithDeleted(true),
			wantStr: base.String() + "!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.u.String(); got != tt.wantStr {
				t.Errorf("String() = %v, want %v", got, tt.wantStr)
			}
		})
	}
}

func TestPointUUIDEqualityIncludesFlag(t *testing.T) {
	base := uuid.MustParse("c1d9b7dc-a1b2-4c3d-9e8f-7a6b5c4d3e2f")
	live := NewPointUUID(base)
	dead := live.WithDeleted(true)

	if live.Equal(dead) {
		t.Fatal("live and dead variants must not be Equal")
	}
	if !live.Matches(dead) {
		t.Fatal("Matches must ignore the deleted flag")
	}
	if live.Compare(dead) >= 0 {
		t.Fatal("undeleted must sort before deleted")
	}
}

func TestPointUUIDBinaryRoundTrip(t *testing.T) {
	base := uuid.MustParse("c1d9b7dc-a1b2-4c3d-9e8f-7a6b5c4d3e2f")
	for _, deleted := range []bool{false, true} {
		u := NewPointUUID(base).WithDeleted(deleted)
		b, err := u.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary: %v", err)
		}
		var got PointUUID
		if err := got.UnmarshalBinary(b); err != nil {
			t.Fatalf("UnmarshalBinary: %v", err)
		}
		if !got.Equal(u) {
			t.Errorf("round trip mismatch: got %v, want %v", got, u)
		}
	}
}

func TestParsePointUUID(t *testing.T) {
	base := "c1d9b7dc-a1b2-4c3d-9e8f-7a6b5c4d3e2f"

	got, err := ParsePointUUID(base + "!")
	if err != nil {
		t.Fatalf("ParsePointUUID: %v", err)
	}
	if !got.Deleted {
		t.Error("expected deleted flag set")
	}

	got2, err := ParsePointUUID(base)
	if err != nil {
		t.Fatalf("ParsePointUUID: %v", err)
	}
	if got2.Deleted {
		t.Error("expected deleted flag clear")
	}
}
