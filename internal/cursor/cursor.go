package cursor

import (
	"context"

	"github.com/pvcore/pointstore/internal/apperr"
	"github.com/pvcore/pointstore/internal/backend"
	"github.com/pvcore/pointstore/internal/metrics"
	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/value"
)

// Config holds the server-wide limits create_response narrows against:
// response.limit bounds how many values a single response carries before a
// Mark is emitted, backend.limit bounds how many raw rows a single backend
// walk is allowed to scan before the Cursor must re-open it over a narrowed
// interval.
type Config struct {
	ResponseLimit int
	BackendLimit  int
}

// Cursor turns one normalized StoreValuesQuery into a StoreValues response.
// A single Cursor call resolves one bound point; fanning a pattern query out
// across multiple matched points is the Store façade's job, one
// CreateResponse call per match (see DESIGN.md).
type Cursor struct {
	backend    backend.Store
	polators   Polators
	perms      PermissionsResolver
	normalizer Normalizer
	cfg        Config
}

// New returns a Cursor wired to the given backend and collaborators.
func New(store backend.Store, polators Polators, perms PermissionsResolver, normalizer Normalizer, cfg Config) *Cursor {
	if cfg.ResponseLimit <= 0 {
		cfg.ResponseLimit = 1000
	}
	return &Cursor{backend: store, polators: polators, perms: perms, normalizer: normalizer, cfg: cfg}
}

// CreateResponse runs the create_response algorithm for q on behalf of
// identity.
func (c *Cursor) CreateResponse(ctx context.Context, identity query.Identity, q *query.StoreValuesQuery) (*query.StoreValues, error) {
	resp, err := c.createResponse(ctx, identity, q)
	if resp != nil && resp.Mark != nil {
		metrics.CursorMarksIssued.Inc()
	}
	return resp, err
}

func (c *Cursor) createResponse(ctx context.Context, identity query.Identity, q *query.StoreValuesQuery) (*query.StoreValues, error) {
	// Step 1: permission check against the bound point, when resolved.
	if q.Point != nil {
		if perm := q.Point.Permissions(); perm != nil && !perm.CheckRead(identity) {
			return query.WithException(apperr.New(apperr.Unauthorized, "read denied for point")), nil
		}
	}

	polated := q.Flags.Has(query.Extrapolated) || q.Flags.Has(query.Interpolated)
	counting := q.Flags.Has(query.Count)

	// Step 2.
	if polated && !q.HasPoint() {
		return query.WithException(apperr.New(apperr.IllegalArgument, "polation requires a bound point")), nil
	}

	if polated && !counting {
		// Step 3.
		instant := q.Interval.IsInstant()
		if !instant && q.Sync == nil {
			return query.WithException(apperr.New(apperr.InvalidInterval, "polation requires an instant interval or a sync schedule")), nil
		}
		if q.Flags.Has(query.Reverse) {
			if q.Interval.Before == nil {
				return query.WithException(apperr.New(apperr.InvalidInterval, "reverse polation requires a bounded before endpoint")), nil
			}
		} else if q.Interval.After == nil {
			return query.WithException(apperr.New(apperr.InvalidInterval, "forward polation requires a bounded after endpoint")), nil
		}

		// Step 4.
		if c.polators == nil {
			return query.WithException(apperr.New(apperr.IllegalState, "no polator configured")), nil
		}
		pol := c.polators.PolatorFor(q.Point)
		if pol == nil {
			return query.WithException(apperr.New(apperr.IllegalState, "no polator configured for point")), nil
		}
		resp, err := pol.Polate(ctx, q)
		if err != nil {
			return query.WithException(apperr.Wrap(apperr.StoreAccess, "polator failed", err)), nil
		}
		return resp, nil
	}

	// Step 5: narrow to min(limit, response_limit).
	responseLimit := c.cfg.ResponseLimit
	if q.Limit > 0 && q.Limit < responseLimit {
		responseLimit = q.Limit
	}

	pointID, ok := q.PointID()
	if !ok {
		return query.WithException(apperr.New(apperr.IllegalArgument, "query names no point")), nil
	}

	reverse := q.Flags.Has(query.Reverse)
	pull := q.Flags.Has(query.Pull)

	responder, err := c.backend.Responder(ctx, pointID, reverse, pull)
	if err != nil {
		return query.WithException(apperr.Wrap(apperr.StoreAccess, "opening responder", err)), nil
	}
	defer responder.Close(ctx)

	var minVersion value.Version
	after, before := q.Interval.After, q.Interval.Before
	if err := responder.Reset(ctx, after, before, minVersion); err != nil {
		return query.WithException(apperr.Wrap(apperr.StoreAccess, "resetting responder", err)), nil
	}

	// Step 6.
	toDo := q.Rows()
	done := 0

	// Step 7: COUNT short-circuits before any row materializes.
	if counting {
		n, err := responder.Count(ctx)
		if err != nil {
			return query.WithException(apperr.Wrap(apperr.StoreAccess, "counting", err)), nil
		}
		if toDo > 0 && uint64(toDo) < n {
			n = uint64(toDo)
		}
		return &query.StoreValues{Count: n, HasCount: true}, nil
	}

	resp := &query.StoreValues{}
	backendLimit := c.cfg.BackendLimit
	received := 0

	for {
		v, ok, err := responder.Next(ctx)
		if err != nil {
			return query.WithException(apperr.Wrap(apperr.StoreAccess, "reading next value", err)), nil
		}
		if !ok {
			break
		}
		received++

		if !c.filter(ctx, identity, q, v) {
			if done >= responseLimit {
				resp.Mark = &query.Mark{
					Query:         q,
					NextPointUUID: pointUUIDPtr(v.PointUUID),
					NextStamp:     v.Stamp,
					DoneCount:     done,
				}
				return resp, nil
			}
			out := v
			if q.Flags.Has(query.Normalized) && c.normalizer != nil {
				out = c.normalizer.Normalize(ctx, q.Point, v)
			}
			resp.Values = append(resp.Values, out)
			done++
			if done >= toDo {
				return resp, nil
			}
		}

		// Step 10: re-scope once the backend has handed back backendLimit
		// raw rows without satisfying the response.
		if backendLimit > 0 && received >= backendLimit {
			if pull {
				minVersion = v.Version + 1
			} else if reverse {
				s := v.Stamp
				before = &s
			} else {
				s := v.Stamp + 1
				after = &s
			}
			if before != nil && after != nil && *before <= *after {
				return resp, nil
			}
			if err := responder.Reset(ctx, after, before, minVersion); err != nil {
				return query.WithException(apperr.Wrap(apperr.StoreAccess, "re-scoping responder", err)), nil
			}
			received = 0
		}
	}

	return resp, nil
}

// filter reports whether v must be dropped from the response per step 8's
// VALUE/SYNCED/DELETED/permission rules.
func (c *Cursor) filter(ctx context.Context, identity query.Identity, q *query.StoreValuesQuery, v value.VersionedValue) bool {
	if q.Flags.Has(query.Value) && v.Value == nil {
		return true
	}
	if q.Flags.Has(query.Synced) && q.Sync != nil && !q.Sync.IsInSync(v.Stamp) {
		return true
	}
	if v.PointUUID.Deleted && !q.Flags.Has(query.Deleted) {
		return true
	}
	if !q.HasPoint() && c.perms != nil {
		perm := c.perms.PermissionsFor(ctx, v.PointUUID)
		if perm != nil && !perm.CheckRead(identity) {
			return true
		}
	}
	return false
}

func pointUUIDPtr(u value.PointUUID) *value.PointUUID {
	cp := u
	return &cp
}
