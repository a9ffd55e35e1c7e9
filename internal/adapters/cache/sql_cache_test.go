package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-route-service/internal/adapters/repositories"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, repositories.InitSchema(context.Background(), conn, db.SQLite))
	return conn
}

func TestSQLGeocodeCache(t *testing.T) {
	c := NewSQLGeocodeCache(newTestDB(t), db.SQLite)
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, ok, err := c.GetPoint(ctx, "Dallas, TX")
	require.NoError(t, err)
	assert.False(t, ok)

	p := &domain.GeocodedPoint{Latitude: 32.78, Longitude: -96.8, DisplayName: "Dallas, TX", Source: "local"}
	require.NoError(t, c.PutPoint(ctx, "Dallas, TX", p, time.Hour))
	p.Source = "nominatim"
	require.NoError(t, c.PutPoint(ctx, "dallas,   tx", p, time.Hour))

	got, ok, err := c.GetPoint(ctx, "DALLAS, TX")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "nominatim", got.Source)

	now = now.Add(2 * time.Hour)
	_, ok, err = c.GetPoint(ctx, "Dallas, TX")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, c.PutPoint(ctx, "   ", p, time.Hour))
}

func TestSQLRouteCacheAndPurge(t *testing.T) {
	conn := newTestDB(t)
	c := NewSQLRouteCache(conn, db.SQLite)
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.PutRoute(ctx, "osrm:::a", testRoute(), time.Hour))
	require.NoError(t, c.PutRoute(ctx, "osrm:::b", testRoute(), 3*time.Hour))

	got, ok, err := c.GetRoute(ctx, "osrm:::a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testRoute(), got)

	n, err := PurgeExpired(ctx, conn, db.SQLite, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	now = now.Add(2 * time.Hour)
	_, ok, err = c.GetRoute(ctx, "osrm:::a")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = c.GetRoute(ctx, "osrm:::b")
	require.NoError(t, err)
	assert.True(t, ok)
}
