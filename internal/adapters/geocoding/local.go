package geocoding

import (
	"context"
	"fmt"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/gazetteer"
)

const (
	SourceLocal     = "gazetteer-local"
	SourceNominatim = "nominatim"
)

// Local resolves "City, ST" queries from the in-memory gazetteer.
type Local struct {
	index *gazetteer.Index
}

func NewLocal(index *gazetteer.Index) *Local {
	return &Local{index: index}
}

func (l *Local) Geocode(_ context.Context, query string) (*domain.GeocodedPoint, error) {
	city, state, ok := gazetteer.ParseCityState(query)
	if !ok {
		return nil, fmt.Errorf("local geocode %q: %w: expected \"City, ST\"", query, domain.ErrLocationNotFound)
	}

	c, _, ok := l.index.Lookup(city, state)
	if !ok {
		return nil, fmt.Errorf("local geocode %q: %w", query, domain.ErrLocationNotFound)
	}

	return &domain.GeocodedPoint{
		Latitude:    c.Lat,
		Longitude:   c.Lon,
		DisplayName: city + ", " + state,
		Source:      SourceLocal,
	}, nil
}
