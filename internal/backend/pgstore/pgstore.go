// Package pgstore is the durable backend.Store: every point's history lives
// in a single Postgres table, queried and written through pgx/v5, for
// deployments that need a restart-surviving point store rather than
// memstore's in-process index.
package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/pvcore/pointstore/internal/backend"
	"github.com/pvcore/pointstore/internal/value"
)

// schema creates the point_values table and its lookup index if they don't
// already exist. A deployment that wants migrations under its own tool can
// set config.SQLCreate=false and apply this by hand instead.
const schema = `
CREATE TABLE IF NOT EXISTS point_values (
	point_id    uuid        NOT NULL,
	deleted     boolean     NOT NULL DEFAULT false,
	stamp       bigint      NOT NULL,
	version     bigint      NOT NULL,
	state_code  integer,
	state_name  text,
	value_json  jsonb,
	PRIMARY KEY (point_id, deleted, stamp, version)
);
CREATE INDEX IF NOT EXISTS point_values_point_stamp_idx
	ON point_values (point_id, deleted, stamp, version);
`

// Open creates a pgx connection pool and, if createSchema is set, applies
// the point_values schema.
func Open(ctx context.Context, url string, createSchema bool) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if createSchema {
		if _, err := pool.Exec(ctx, schema); err != nil {
			pool.Close()
			return nil, err
		}
	}

	log.Info().Int32("max_conns", cfg.MaxConns).Int32("min_conns", cfg.MinConns).
		Msg("pgstore connection pool created")

	return pool, nil
}

// Store is a backend.Store backed by a Postgres point_values table.
type Store struct {
	pool  *pgxpool.Pool
	limit int
}

// New wraps an already-open pool as a backend.Store. limit caps the number
// of rows a single Responder walk returns before the Cursor must re-scope
// (0 = unbounded), matching memstore.New's contract.
func New(pool *pgxpool.Pool, limit int) *Store {
	return &Store{pool: pool, limit: limit}
}

// Responder opens a read-only walk over point's history.
func (s *Store) Responder(ctx context.Context, point value.PointUUID, reverse bool, pull bool) (backend.Responder, error) {
	return &responder{pool: s.pool, point: point, reverse: reverse, limit: s.limit}, nil
}

// Writer opens a batch writer for point.
func (s *Store) Writer(ctx context.Context, point value.PointUUID) (backend.Writer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &writer{tx: tx, point: point}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
