package ports

import (
	"context"
	"fuel-route-service/internal/domain"
)

// Port: a boundary for querying the fuel station price catalog.
type StationCatalog interface {
	// Return located stations whose coordinates fall inside bounds.
	ListStationsInBounds(ctx context.Context, bounds domain.BoundingBox) ([]domain.FuelStation, error)
	// Return the catalog-wide average retail price; ok is false for an empty catalog.
	AveragePrice(ctx context.Context) (avg float64, ok bool, err error)
}

// Filter for browsing the catalog.
type StationFilter struct {
	State string
	Limit int
}

// Optional extension of StationCatalog used by the listing endpoint.
type StationLister interface {
	ListStations(ctx context.Context, filter StationFilter) ([]domain.FuelStation, error)
}
