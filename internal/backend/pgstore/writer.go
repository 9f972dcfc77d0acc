package pgstore

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/pvcore/pointstore/internal/value"
)

// writer buffers Insert/Delete/Purge calls against the point's rows within
// one pgx transaction, committed or rolled back as a unit.
type writer struct {
	tx    pgx.Tx
	point value.PointUUID
	done  bool
}

func marshalValue(v *value.Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (w *writer) upsert(ctx context.Context, pv value.PointValue, ver value.Version) error {
	var stateCode *int
	var stateName *string
	if pv.State != nil {
		stateCode = &pv.State.Code
		stateName = &pv.State.Name
	}

	valJSON, err := marshalValue(pv.Value)
	if err != nil {
		return err
	}

	_, err = w.tx.Exec(ctx, `
		INSERT INTO point_values (point_id, deleted, stamp, version, state_code, state_name, value_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (point_id, deleted, stamp, version) DO UPDATE SET
			state_code = EXCLUDED.state_code,
			state_name = EXCLUDED.state_name,
			value_json = EXCLUDED.value_json
	`, pv.PointUUID.ID, pv.PointUUID.Deleted, int64(pv.Stamp), int64(ver), stateCode, stateName, valJSON)
	return err
}

// Insert appends a new versioned value for the point.
func (w *writer) Insert(ctx context.Context, pv value.VersionedValue) error {
	return w.upsert(ctx, pv.PointValue, pv.Version)
}

// Delete records a tombstone under the point's deleted-uuid shadow key.
func (w *writer) Delete(ctx context.Context, d value.Deleted) error {
	return w.upsert(ctx, d.PointValue, d.Version)
}

// Purge physically removes every version of point at or before upTo,
// including tombstones under both the live and deleted-uuid keys.
func (w *writer) Purge(ctx context.Context, point value.PointUUID, upTo value.Stamp) (uint64, error) {
	tag, err := w.tx.Exec(ctx, `
		DELETE FROM point_values WHERE point_id = $1 AND stamp <= $2
	`, point.ID, int64(upTo))
	if err != nil {
		return 0, err
	}
	return uint64(tag.RowsAffected()), nil
}

// Commit finalizes the transaction, making every buffered Insert/Delete/
// Purge atomically visible.
func (w *writer) Commit(ctx context.Context) error {
	if w.done {
		return nil
	}
	w.done = true
	return w.tx.Commit(ctx)
}

// Rollback discards the transaction. A no-op after a successful Commit.
func (w *writer) Rollback(ctx context.Context) error {
	if w.done {
		return nil
	}
	w.done = true
	return w.tx.Rollback(ctx)
}
