package ports

import (
	"context"
	"fuel-route-service/internal/domain"
	"time"
)

// Cache for routing provider results keyed by provider and rounded coordinates.
type RouteCache interface {
	GetRoute(ctx context.Context, key string) (*domain.Route, bool, error)
	PutRoute(ctx context.Context, key string, route *domain.Route, ttl time.Duration) error
}

// Cache for geocoding results keyed by the normalized query.
type GeocodeCache interface {
	GetPoint(ctx context.Context, query string) (*domain.GeocodedPoint, bool, error)
	PutPoint(ctx context.Context, query string, point *domain.GeocodedPoint, ttl time.Duration) error
}
