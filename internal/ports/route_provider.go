package ports

import (
	"context"
	"fuel-route-service/internal/domain"
)

// Contract for retrieving a driving route through an ordered list of points.
type RouteProvider interface {
	// Return the route visiting waypoints in order (at least origin and destination).
	FetchRoute(ctx context.Context, waypoints []domain.Coordinates) (*domain.Route, error)
	// Short provider name reported in plan metadata and cache keys.
	Name() string
}
