package pgstore

import (
	"testing"

	"github.com/pvcore/pointstore/internal/value"
)

func TestMarshalValueNil(t *testing.T) {
	got, err := marshalValue(nil)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for a nil value, got %v", got)
	}
}

func TestMarshalValueEncodesJSON(t *testing.T) {
	v := value.Signed64(42)
	got, err := marshalValue(&v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s, ok := got.(string)
	if !ok || s == "" {
		t.Fatalf("expected a non-empty JSON string, got %v", got)
	}
}
