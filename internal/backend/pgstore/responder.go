package pgstore

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pvcore/pointstore/internal/value"
)

// responder runs one query per Reset and holds the full result set in
// memory, mirroring memstore's snapshot-at-Reset semantics: writes
// committed after Reset are not visible to an in-flight walk.
type responder struct {
	pool    *pgxpool.Pool
	point   value.PointUUID
	reverse bool
	limit   int

	rows []value.VersionedValue
	pos  int
}

func scanRow(rows pgx.Rows, pointID value.PointUUID) (value.VersionedValue, error) {
	var deleted bool
	var stamp, ver int64
	var stateCode *int
	var stateName *string
	var valJSON []byte

	if err := rows.Scan(&deleted, &stamp, &ver, &stateCode, &stateName, &valJSON); err != nil {
		return value.VersionedValue{}, err
	}

	pv := value.PointValue{
		PointUUID: pointID.WithDeleted(deleted),
		Stamp:     value.Stamp(stamp),
	}
	if stateCode != nil && stateName != nil {
		pv.State = &value.State{Code: *stateCode, Name: *stateName}
	}
	if len(valJSON) > 0 {
		var v value.Value
		if err := json.Unmarshal(valJSON, &v); err != nil {
			return value.VersionedValue{}, err
		}
		pv.Value = &v
	}

	return value.VersionedValue{PointValue: pv, Version: value.Version(ver)}, nil
}

// Reset runs a fresh query over [after, before), excluding any version
// below minVersion, ordered per the walk's configured direction.
func (r *responder) Reset(ctx context.Context, after, before *value.Stamp, minVersion value.Version) error {
	order := "ASC"
	if r.reverse {
		order = "DESC"
	}

	query := `
		SELECT deleted, stamp, version, state_code, state_name, value_json
		FROM point_values
		WHERE point_id = $1
		  AND ($2::bigint IS NULL OR stamp >= $2)
		  AND ($3::bigint IS NULL OR stamp < $3)
		  AND ($4::bigint = 0 OR version >= $4)
		ORDER BY stamp ` + order + `, version ` + order

	var afterArg, beforeArg *int64
	if after != nil {
		a := int64(*after)
		afterArg = &a
	}
	if before != nil {
		b := int64(*before)
		beforeArg = &b
	}

	rows, err := r.pool.Query(ctx, query, r.point.ID, afterArg, beforeArg, int64(minVersion))
	if err != nil {
		return err
	}
	defer rows.Close()

	r.rows = r.rows[:0]
	for rows.Next() {
		v, err := scanRow(rows, r.point.Undeleted())
		if err != nil {
			return err
		}
		r.rows = append(r.rows, v)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	r.pos = 0
	return nil
}

// Next returns the next row in the configured walk order.
func (r *responder) Next(ctx context.Context) (value.VersionedValue, bool, error) {
	if r.limit > 0 && r.pos >= r.limit {
		return value.VersionedValue{}, false, nil
	}
	if r.pos >= len(r.rows) {
		return value.VersionedValue{}, false, nil
	}
	v := r.rows[r.pos]
	r.pos++
	return v, true, nil
}

// Count reports the walk's remaining result size without consuming it.
func (r *responder) Count(ctx context.Context) (uint64, error) {
	if r.pos >= len(r.rows) {
		return 0, nil
	}
	return uint64(len(r.rows) - r.pos), nil
}

// Limit reports the configured per-walk row cap.
func (r *responder) Limit() int { return r.limit }

// Close releases the in-memory result set.
func (r *responder) Close(ctx context.Context) error {
	r.rows = nil
	return nil
}
