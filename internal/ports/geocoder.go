package ports

import (
	"context"
	"fuel-route-service/internal/domain"
)

// Contract for resolving free-form place names to coordinates.
type Geocoder interface {
	// Return the best match for query, or an error wrapping domain.ErrLocationNotFound.
	Geocode(ctx context.Context, query string) (*domain.GeocodedPoint, error)
}
