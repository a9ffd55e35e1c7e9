package routing

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/ports"
)

const DefaultRouteTTL = 24 * time.Hour

// Cached serves routes from a RouteCache before asking the wrapped provider.
// Cache failures are logged and treated as misses.
type Cached struct {
	inner   ports.RouteProvider
	cache   ports.RouteCache
	profile string
	ttl     time.Duration
}

func NewCached(inner ports.RouteProvider, cache ports.RouteCache, profile string, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultRouteTTL
	}
	return &Cached{inner: inner, cache: cache, profile: profile, ttl: ttl}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) FetchRoute(ctx context.Context, waypoints []domain.Coordinates) (*domain.Route, error) {
	key := RouteCacheKey(c.inner.Name(), c.profile, waypoints)
	reqID := obs.RequestID(ctx)

	route, ok, err := c.cache.GetRoute(ctx, key)
	if err != nil {
		log.Printf("req_id=%s op=routing.Cached get failed provider=%s err=%v", reqID, c.inner.Name(), err)
	} else if ok {
		return route, nil
	}

	route, err = c.inner.FetchRoute(ctx, waypoints)
	if err != nil {
		return nil, err
	}

	if err := c.cache.PutRoute(ctx, key, route, c.ttl); err != nil {
		log.Printf("req_id=%s op=routing.Cached put failed provider=%s err=%v", reqID, c.inner.Name(), err)
	}
	return route, nil
}

// RouteCacheKey builds the cache key from provider, profile, and waypoints
// rounded to 5 decimals.
func RouteCacheKey(provider, profile string, waypoints []domain.Coordinates) string {
	var b strings.Builder
	b.WriteString(provider)
	b.WriteByte(':')
	b.WriteString(profile)
	for _, w := range waypoints {
		fmt.Fprintf(&b, "::%.5f:%.5f", w.Lat, w.Lon)
	}
	return b.String()
}
