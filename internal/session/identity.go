package session

import (
	"context"
	"time"

	"github.com/pvcore/pointstore/internal/apperr"
	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/value"
)

// Identity authenticates a session's caller. It satisfies query.Identity so
// the cursor's permission checks never need to import this package.
type Identity interface {
	Subject() string
}

// StatusFor maps an apperr.Kind to its embedded-C-client StatusCode.
func StatusFor(k apperr.Kind) StatusCode {
	switch k {
	case apperr.ServiceClosed:
		return StatusDisconnected
	case apperr.ServiceNotAvailable:
		return StatusUnrecoverable
	case apperr.BadHandle:
		return StatusBadHandle
	case apperr.PointUnknown:
		return StatusPointUnknown
	case apperr.IllegalState:
		return StatusIllegalState
	case apperr.SessionAuth, apperr.Unauthorized:
		return StatusFailed
	default:
		return StatusFailed
	}
}

// BindingRequest is the session-facing shape of binding.Request, expressed
// in terms of the value package so this package never imports binding
// directly; Store adapts between the two.
type BindingRequest struct {
	Name       string           `json:"name"`
	ClientUUID *value.PointUUID `json:"clientUuid,omitempty"`
	ServerUUID *value.PointUUID `json:"serverUuid,omitempty"`
	Rebind     bool             `json:"rebind"`
}

// BindingResult is the session-facing shape of a resolved binding.Binding.
type BindingResult struct {
	Name       string          `json:"name"`
	ClientUUID value.PointUUID `json:"clientUuid"`
	ServerUUID value.PointUUID `json:"serverUuid"`
}

// StateResolveRequest asks RPC.Resolve to fill in whichever of Code/Name is
// missing for a point's configured state group.
type StateResolveRequest struct {
	State value.State      `json:"state"`
	UUID  *value.PointUUID `json:"uuid,omitempty"`
}

// RPC is the session operation surface a transport adapter calls into.
// Every batch operation returns one Result per input element; a nil
// Response slice (returned alongside a non-nil error) means the service is
// closed.
type RPC interface {
	Select(ctx context.Context, queries []*query.StoreValuesQuery) ([]Result[*query.StoreValues], error)
	Pull(ctx context.Context, q *query.StoreValuesQuery, timeout time.Duration) (*query.StoreValues, error)
	Update(ctx context.Context, values []value.PointValue) ([]Result[value.VersionedValue], error)
	Purge(ctx context.Context, uuids []value.PointUUID, iv query.Interval) ([]Result[uint64], error)

	Subscribe(ctx context.Context, uuids []value.PointUUID) ([]Result[value.VersionedValue], error)
	Unsubscribe(ctx context.Context, uuids []value.PointUUID) []Result[struct{}]
	Deliver(ctx context.Context, limit int, timeout time.Duration) ([]value.ReplicatedValue, error)

	GetPointBindings(ctx context.Context, requests []BindingRequest) ([]BindingResult, error)
	GetStateGroups(ctx context.Context) ([]string, error)
	Resolve(ctx context.Context, req StateResolveRequest) (value.State, error)

	Impersonate(ctx context.Context, user string) (Identity, error)
	Interrupt(ctx context.Context) error
	Probe(ctx context.Context) error

	SupportedValueTypeCodes() string
	SupportsCount() bool
	SupportsDelete() bool
	SupportsDeliver() bool
	SupportsPull() bool
	SupportsPurge() bool
	SupportsSubscribe() bool
}
