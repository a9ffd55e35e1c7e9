package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/db"
	"fuel-route-service/internal/platform/obs"
)

// SQLGeocodeCache is a SQL-backed cache mapping location queries to points.
// Entries past their expiry are treated as misses.
type SQLGeocodeCache struct {
	DB      *sql.DB
	Dialect db.Dialect
	now     func() time.Time
}

func NewSQLGeocodeCache(conn *sql.DB, dialect db.Dialect) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: conn, Dialect: dialect, now: time.Now}
}

// Fetch the cached point for query.
func (s *SQLGeocodeCache) GetPoint(ctx context.Context, query string) (_ *domain.GeocodedPoint, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.GetPoint")(&err)

	if s.DB == nil {
		return nil, false, errors.New("geocode cache: db is nil")
	}

	q := s.Dialect.Rebind(`
	SELECT
		latitude,
		longitude,
		display_name,
		source
	FROM geocode_cache
	WHERE query = ? AND expires_at > ?;
	`)

	var p domain.GeocodedPoint
	err = s.DB.QueryRowContext(ctx, q, NormalizeQuery(query), s.now().Unix()).
		Scan(&p.Latitude, &p.Longitude, &p.DisplayName, &p.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	return &p, true, nil
}

// Store the point for query until ttl elapses.
func (s *SQLGeocodeCache) PutPoint(ctx context.Context, query string, p *domain.GeocodedPoint, ttl time.Duration) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	key := NormalizeQuery(query)
	if key == "" {
		return errors.New("insert geocode cache: empty query key")
	}

	q := s.Dialect.Rebind(`
	INSERT INTO geocode_cache (query, latitude, longitude, display_name, source, expires_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (query) DO UPDATE
	SET latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		display_name = EXCLUDED.display_name,
		source = EXCLUDED.source,
		expires_at = EXCLUDED.expires_at;
	`)

	expires := s.now().Add(ttl).Unix()
	if _, err := s.DB.ExecContext(ctx, q, key, p.Latitude, p.Longitude, p.DisplayName, p.Source, expires); err != nil {
		return fmt.Errorf("insert geocode cache query=%q: %w", key, err)
	}
	return nil
}
