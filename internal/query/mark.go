package query

import "github.com/pvcore/pointstore/internal/value"

// Mark is a pagination continuation: a value naming the query that produced
// it plus where the next value beyond the response limit begins. Per
// spec.md §9's design note, Mark embeds a copy of the parent query (not a
// back-pointer to an enclosing object) so CreateQuery is a pure function.
type Mark struct {
	Query         *StoreValuesQuery
	NextPointUUID *value.PointUUID
	NextStamp     value.Stamp
	DoneCount     int
}

// CreateQuery builds the continuation query: the parent query re-scoped so
// iteration resumes exactly at the value the Mark points to, forward or
// reverse according to the parent's own direction.
func (m *Mark) CreateQuery() *StoreValuesQuery {
	q := *m.Query
	iv := q.Interval
	if q.Flags.Has(Reverse) {
		v := m.NextStamp + 1
		iv.Before = &v
	} else {
		v := m.NextStamp
		iv.After = &v
	}
	q.Interval = iv
	return &q
}
