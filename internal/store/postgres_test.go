package store

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coral-atlas/poi-cli/internal/model"
	"github.com/coral-atlas/poi-cli/pkg/geocode"
)

func init() {
	// Replace global logger with a no-op to avoid nil pointer panics in tests.
	zap.ReplaceGlobals(zap.NewNop())
}

func newMockPostgres(t *testing.T, ttl time.Duration) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock, cacheTTL: ttl}, mock
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockPostgres(t, 0)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS geocode_cache").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	err := s.Migrate(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrateError(t *testing.T) {
	s, mock := newMockPostgres(t, 0)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS geocode_cache").
		WillReturnError(fmt.Errorf("permission denied"))

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetCachedGeocodeHit(t *testing.T) {
	s, mock := newMockPostgres(t, 0)

	key := geocode.CacheKey("Rum Point, Grand Cayman")
	matched := "Rum Point"
	rows := pgxmock.NewRows([]string{"lat", "lng", "confidence", "source", "matched_name", "cached_at"}).
		AddRow(19.3694, -81.2733, 0.85, "photon", &matched, time.Now().UTC())
	mock.ExpectQuery("SELECT lat, lng, confidence, source, matched_name, cached_at FROM geocode_cache").
		WithArgs(key).
		WillReturnRows(rows)

	got, err := s.GetCachedGeocode(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 19.3694, got.Lat, 0.0001)
	assert.Equal(t, "photon", got.Source)
	assert.Equal(t, "Rum Point", got.MatchedName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetCachedGeocodeMiss(t *testing.T) {
	s, mock := newMockPostgres(t, 0)

	mock.ExpectQuery("SELECT lat, lng, confidence, source, matched_name, cached_at FROM geocode_cache").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetCachedGeocode(context.Background(), geocode.CacheKey("nowhere"))
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetCachedGeocodeExpired(t *testing.T) {
	s, mock := newMockPostgres(t, 24*time.Hour)

	matched := "Stingray City"
	rows := pgxmock.NewRows([]string{"lat", "lng", "confidence", "source", "matched_name", "cached_at"}).
		AddRow(19.386, -81.307, 0.95, "map-scrape", &matched, time.Now().UTC().Add(-48*time.Hour))
	mock.ExpectQuery("SELECT lat, lng, confidence, source, matched_name, cached_at FROM geocode_cache").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(rows)

	got, err := s.GetCachedGeocode(context.Background(), geocode.CacheKey("Stingray City"))
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPutCachedGeocode(t *testing.T) {
	s, mock := newMockPostgres(t, 0)

	key := geocode.CacheKey("Starfish Point")
	mock.ExpectExec("INSERT INTO geocode_cache").
		WithArgs(key, 19.3761, -81.2752, 0.9, "nominatim", "Starfish Point").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.PutCachedGeocode(context.Background(), key, &geocode.Result{
		Lat: 19.3761, Lng: -81.2752, Confidence: 0.9, Source: "nominatim", MatchedName: "Starfish Point",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertPlaces(t *testing.T) {
	s, mock := newMockPostgres(t, 0)

	places := []model.CanonicalPlace{
		testPlace("p1", "Cayman Crystal Caves"),
		testPlace("p2", "Smith's Cove"),
	}
	for _, p := range places {
		mock.ExpectExec("INSERT INTO places").
			WithArgs(p.CanonicalID, p.Name, p.Category, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	err := s.UpsertPlaces(context.Background(), places)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertPlacesExecError(t *testing.T) {
	s, mock := newMockPostgres(t, 0)

	mock.ExpectExec("INSERT INTO places").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(fmt.Errorf("disk full"))

	err := s.UpsertPlaces(context.Background(), []model.CanonicalPlace{testPlace("p1", "Rum Point")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert place p1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListPlaces(t *testing.T) {
	s, mock := newMockPostgres(t, 0)

	p1, err := json.Marshal(testPlace("p1", "Cayman Crystal Caves"))
	require.NoError(t, err)
	p2, err := json.Marshal(testPlace("p2", "Smith's Cove"))
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{"record"}).AddRow(p1).AddRow(p2)
	mock.ExpectQuery("SELECT record FROM places").WillReturnRows(rows)

	got, err := s.ListPlaces(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Cayman Crystal Caves", got[0].Name)
	assert.Equal(t, "canon-p2", got[1].CanonicalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListPlacesQueryError(t *testing.T) {
	s, mock := newMockPostgres(t, 0)

	mock.ExpectQuery("SELECT record FROM places").
		WillReturnError(fmt.Errorf("connection lost"))

	_, err := s.ListPlaces(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list places")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListPlacesBadRecord(t *testing.T) {
	s, mock := newMockPostgres(t, 0)

	rows := pgxmock.NewRows([]string{"record"}).AddRow([]byte("not json"))
	mock.ExpectQuery("SELECT record FROM places").WillReturnRows(rows)

	_, err := s.ListPlaces(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode place")
}
