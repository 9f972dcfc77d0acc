package query

import (
	"encoding/json"
	"time"

	"github.com/pvcore/pointstore/internal/value"
)

// wireQuery is the on-wire field order from spec.md §6.2: point_uuid?,
// point_name? (only if no uuid — name resolution itself lives in the
// binding index, above this package, so it is carried as a plain string
// here), interval (after?, before?), rows, flags, limit, sync?,
// polator_time_limit?.
type wireQuery struct {
	PointUUID        *string `json:"point_uuid,omitempty"`
	PointName        *string `json:"point_name,omitempty"`
	After            *int64  `json:"after,omitempty"`
	Before           *int64  `json:"before,omitempty"`
	Rows             int32   `json:"rows"`
	Flags            int32   `json:"flags"`
	Limit            int32   `json:"limit"`
	Sync             json.RawMessage `json:"sync,omitempty"`
	PolatorTimeLimitMs *int64 `json:"polator_time_limit,omitempty"`
}

// MarshalJSON encodes q in the spec's wire field order. The point_name and
// sync fields are left empty, since this package has no name-resolution or
// sync-serialization authority of its own.
func (q *StoreValuesQuery) MarshalJSON() ([]byte, error) {
	w := wireQuery{
		Rows:  int32(q.rows),
		Flags: int32(q.Flags),
		Limit: int32(q.Limit),
	}
	if u, ok := q.PointID(); ok {
		s := u.String()
		w.PointUUID = &s
	}
	if q.Interval.After != nil {
		v := int64(*q.Interval.After)
		w.After = &v
	}
	if q.Interval.Before != nil {
		v := int64(*q.Interval.Before)
		w.Before = &v
	}
	if q.PolatorTimeLimit != 0 {
		ms := q.PolatorTimeLimit.Milliseconds()
		w.PolatorTimeLimitMs = &ms
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a wire query back into a Builder-ready shape. The
// result is still a raw StoreValuesQuery — callers must pass it back
// through a Builder if they need the normalization rules re-applied (e.g.
// after resolving point_name to a PointHandle).
func (q *StoreValuesQuery) UnmarshalJSON(b []byte) error {
	var w wireQuery
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.PointUUID != nil {
		u, err := value.ParsePointUUID(*w.PointUUID)
		if err != nil {
			return err
		}
		q.PointUUID = &u
	}
	if w.After != nil {
		v := value.Stamp(*w.After)
		q.Interval.After = &v
	}
	if w.Before != nil {
		v := value.Stamp(*w.Before)
		q.Interval.Before = &v
	}
	q.rows = int(w.Rows)
	q.Flags = Flags(w.Flags)
	q.Limit = int(w.Limit)
	if w.PolatorTimeLimitMs != nil {
		q.PolatorTimeLimit = time.Duration(*w.PolatorTimeLimitMs) * time.Millisecond
	}
	return nil
}

// wireMark is the Mark wire form: present bool; when present, the four
// fields [query; query_point_uuid?; stamp; done] spec.md §6.2 describes.
type wireMark struct {
	Present       bool             `json:"present"`
	Query         *StoreValuesQuery `json:"query,omitempty"`
	NextPointUUID *string          `json:"query_point_uuid,omitempty"`
	Stamp         int64            `json:"stamp,omitempty"`
	Done          int32            `json:"done,omitempty"`
}

// MarshalMark encodes a Mark (or its absence) in the wire form.
func MarshalMark(m *Mark) ([]byte, error) {
	if m == nil {
		return json.Marshal(wireMark{Present: false})
	}
	w := wireMark{
		Present: true,
		Query:   m.Query,
		Stamp:   int64(m.NextStamp),
		Done:    int32(m.DoneCount),
	}
	if m.NextPointUUID != nil {
		s := m.NextPointUUID.String()
		w.NextPointUUID = &s
	}
	return json.Marshal(w)
}

// UnmarshalMark decodes the wire form produced by MarshalMark.
func UnmarshalMark(b []byte) (*Mark, error) {
	var w wireMark
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	if !w.Present {
		return nil, nil
	}
	m := &Mark{Query: w.Query, NextStamp: value.Stamp(w.Stamp), DoneCount: int(w.Done)}
	if w.NextPointUUID != nil {
		u, err := value.ParsePointUUID(*w.NextPointUUID)
		if err != nil {
			return nil, err
		}
		m.NextPointUUID = &u
	}
	return m, nil
}
