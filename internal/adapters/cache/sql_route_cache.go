package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/db"
	"fuel-route-service/internal/platform/obs"
)

// SQLRouteCache persists routing results as JSON rows so repeated trips skip
// the routing provider when Redis is not configured.
type SQLRouteCache struct {
	DB      *sql.DB
	Dialect db.Dialect
	now     func() time.Time
}

func NewSQLRouteCache(conn *sql.DB, dialect db.Dialect) *SQLRouteCache {
	return &SQLRouteCache{DB: conn, Dialect: dialect, now: time.Now}
}

func (s *SQLRouteCache) GetRoute(ctx context.Context, key string) (_ *domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.GetRoute")(&err)

	if s.DB == nil {
		return nil, false, errors.New("route cache: db is nil")
	}

	q := s.Dialect.Rebind(`
	SELECT payload
	FROM route_cache
	WHERE cache_key = ? AND expires_at > ?;
	`)

	var payload string
	err = s.DB.QueryRowContext(ctx, q, Key("route", key), s.now().Unix()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	var route domain.Route
	if err := json.Unmarshal([]byte(payload), &route); err != nil {
		return nil, false, fmt.Errorf("get route cache: decode payload: %w", err)
	}
	return &route, true, nil
}

func (s *SQLRouteCache) PutRoute(ctx context.Context, key string, route *domain.Route, ttl time.Duration) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	payload, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("insert route cache: encode payload: %w", err)
	}

	q := s.Dialect.Rebind(`
	INSERT INTO route_cache (cache_key, payload, expires_at)
	VALUES (?, ?, ?)
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = EXCLUDED.payload,
		expires_at = EXCLUDED.expires_at;
	`)

	if _, err := s.DB.ExecContext(ctx, q, Key("route", key), string(payload), s.now().Add(ttl).Unix()); err != nil {
		return fmt.Errorf("insert route cache: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired route and geocode cache rows and returns how
// many were removed.
func PurgeExpired(ctx context.Context, conn *sql.DB, dialect db.Dialect, now time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"route_cache", "geocode_cache"} {
		res, err := conn.ExecContext(ctx, dialect.Rebind(`DELETE FROM `+table+` WHERE expires_at <= ?;`), now.Unix())
		if err != nil {
			return total, fmt.Errorf("purge %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
