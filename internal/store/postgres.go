package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/coral-atlas/poi-cli/internal/model"
	"github.com/coral-atlas/poi-cli/pkg/geocode"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store for the hosted knowledge base.
type PostgresStore struct {
	pool     Pool
	cacheTTL time.Duration
}

// NewPostgres connects a pgx pool to the given database.
func NewPostgres(ctx context.Context, connString string, cacheTTL time.Duration) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, cacheTTL: cacheTTL}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query_hash   TEXT PRIMARY KEY,
	lat          DOUBLE PRECISION NOT NULL,
	lng          DOUBLE PRECISION NOT NULL,
	confidence   DOUBLE PRECISION NOT NULL,
	source       TEXT NOT NULL,
	matched_name TEXT,
	cached_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS places (
	canonical_id TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	category     TEXT,
	record       JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_places_category ON places(category);
`

// Migrate creates the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// GetCachedGeocode returns a cached result, or nil on miss/expiry.
func (s *PostgresStore) GetCachedGeocode(ctx context.Context, key string) (*geocode.Result, error) {
	query := `SELECT lat, lng, confidence, source, matched_name, cached_at FROM geocode_cache WHERE query_hash = $1`

	var res geocode.Result
	var matched *string
	var cachedAt time.Time
	err := s.pool.QueryRow(ctx, query, key).
		Scan(&res.Lat, &res.Lng, &res.Confidence, &res.Source, &matched, &cachedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached geocode")
	}
	if s.cacheTTL > 0 && time.Since(cachedAt) > s.cacheTTL {
		return nil, nil
	}
	if matched != nil {
		res.MatchedName = *matched
	}
	return &res, nil
}

// PutCachedGeocode stores a result, replacing any previous entry.
func (s *PostgresStore) PutCachedGeocode(ctx context.Context, key string, res *geocode.Result) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO geocode_cache (query_hash, lat, lng, confidence, source, matched_name, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (query_hash) DO UPDATE SET
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			confidence = EXCLUDED.confidence,
			source = EXCLUDED.source,
			matched_name = EXCLUDED.matched_name,
			cached_at = EXCLUDED.cached_at`,
		key, res.Lat, res.Lng, res.Confidence, res.Source, res.MatchedName,
	)
	return eris.Wrap(err, "postgres: put cached geocode")
}

// UpsertPlaces writes the canonical set.
func (s *PostgresStore) UpsertPlaces(ctx context.Context, places []model.CanonicalPlace) error {
	for _, p := range places {
		record, err := json.Marshal(p)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal place %s", p.CanonicalID)
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO places (canonical_id, name, category, record, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (canonical_id) DO UPDATE SET
				name = EXCLUDED.name,
				category = EXCLUDED.category,
				record = EXCLUDED.record,
				updated_at = EXCLUDED.updated_at`,
			p.CanonicalID, p.Name, p.Category, record,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert place %s", p.CanonicalID)
		}
	}
	return nil
}

// ListPlaces returns the full canonical set.
func (s *PostgresStore) ListPlaces(ctx context.Context) ([]model.CanonicalPlace, error) {
	rows, err := s.pool.Query(ctx, `SELECT record FROM places ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list places")
	}
	defer rows.Close()

	var out []model.CanonicalPlace
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, eris.Wrap(err, "postgres: scan place")
		}
		var p model.CanonicalPlace
		if err := json.Unmarshal(record, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: decode place")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate places")
}
