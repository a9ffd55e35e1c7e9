package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/obs"
)

// RedisCache stores routes and geocoded points as JSON values under hashed keys.
// It implements both ports.RouteCache and ports.GeocodeCache.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Ping verifies the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis cache: ping: %w", err)
	}
	return nil
}

func (c *RedisCache) GetRoute(ctx context.Context, key string) (_ *domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "redis.GetRoute")(&err)

	var route domain.Route
	ok, err := c.get(ctx, Key("route", key), &route)
	if !ok || err != nil {
		return nil, false, err
	}
	return &route, true, nil
}

func (c *RedisCache) PutRoute(ctx context.Context, key string, route *domain.Route, ttl time.Duration) error {
	return c.set(ctx, Key("route", key), route, ttl)
}

func (c *RedisCache) GetPoint(ctx context.Context, query string) (*domain.GeocodedPoint, bool, error) {
	var p domain.GeocodedPoint
	ok, err := c.get(ctx, Key("geocode", NormalizeQuery(query)), &p)
	if !ok || err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (c *RedisCache) PutPoint(ctx context.Context, query string, p *domain.GeocodedPoint, ttl time.Duration) error {
	return c.set(ctx, Key("geocode", NormalizeQuery(query)), p, ttl)
}

func (c *RedisCache) get(ctx context.Context, key string, out any) (bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis cache: get %s: %w", key, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("redis cache: decode %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis cache: encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: set %s: %w", key, err)
	}
	return nil
}
