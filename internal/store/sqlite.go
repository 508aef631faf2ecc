package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/coral-atlas/poi-cli/internal/model"
	"github.com/coral-atlas/poi-cli/pkg/geocode"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db       *sql.DB
	cacheTTL time.Duration
}

// NewSQLite opens a SQLite database at the given path in WAL mode.
func NewSQLite(path string, cacheTTL time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, cacheTTL: cacheTTL}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query_hash   TEXT PRIMARY KEY,
	lat          REAL NOT NULL,
	lng          REAL NOT NULL,
	confidence   REAL NOT NULL,
	source       TEXT NOT NULL,
	matched_name TEXT,
	cached_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS places (
	canonical_id TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	category     TEXT,
	record       TEXT NOT NULL,
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_places_category ON places(category);
CREATE INDEX IF NOT EXISTS idx_geocode_cache_cached_at ON geocode_cache(cached_at);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetCachedGeocode returns a cached result, or nil when the key is absent
// or expired.
func (s *SQLiteStore) GetCachedGeocode(ctx context.Context, key string) (*geocode.Result, error) {
	query := `SELECT lat, lng, confidence, source, matched_name, cached_at FROM geocode_cache WHERE query_hash = ?`

	var res geocode.Result
	var matched sql.NullString
	var cachedAt string
	err := s.db.QueryRowContext(ctx, query, key).
		Scan(&res.Lat, &res.Lng, &res.Confidence, &res.Source, &matched, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached geocode")
	}
	if s.cacheTTL > 0 {
		// datetime('now') stores UTC as "2006-01-02 15:04:05".
		at, err := time.ParseInLocation("2006-01-02 15:04:05", cachedAt, time.UTC)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: parse cached_at")
		}
		if time.Since(at) > s.cacheTTL {
			return nil, nil
		}
	}
	res.MatchedName = matched.String
	return &res, nil
}

// PutCachedGeocode stores a result, replacing any previous entry.
func (s *SQLiteStore) PutCachedGeocode(ctx context.Context, key string, res *geocode.Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (query_hash, lat, lng, confidence, source, matched_name, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT (query_hash) DO UPDATE SET
			lat = excluded.lat,
			lng = excluded.lng,
			confidence = excluded.confidence,
			source = excluded.source,
			matched_name = excluded.matched_name,
			cached_at = excluded.cached_at`,
		key, res.Lat, res.Lng, res.Confidence, res.Source, res.MatchedName,
	)
	return eris.Wrap(err, "sqlite: put cached geocode")
}

// UpsertPlaces writes the canonical set in one transaction.
func (s *SQLiteStore) UpsertPlaces(ctx context.Context, places []model.CanonicalPlace) error {
	if len(places) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin upsert places")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO places (canonical_id, name, category, record, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT (canonical_id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			record = excluded.record,
			updated_at = excluded.updated_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert places")
	}
	defer stmt.Close() //nolint:errcheck

	for _, p := range places {
		record, err := json.Marshal(p)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal place %s", p.CanonicalID)
		}
		if _, err := stmt.ExecContext(ctx, p.CanonicalID, p.Name, p.Category, string(record)); err != nil {
			return eris.Wrapf(err, "sqlite: upsert place %s", p.CanonicalID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit upsert places")
}

// ListPlaces returns the full canonical set.
func (s *SQLiteStore) ListPlaces(ctx context.Context) ([]model.CanonicalPlace, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM places ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list places")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.CanonicalPlace
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan place")
		}
		var p model.CanonicalPlace
		if err := json.Unmarshal([]byte(record), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode place")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate places")
}
