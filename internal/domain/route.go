package domain

// Represents a single driving route returned by a routing provider.
// Geometry is ordered from origin to destination as (lon, lat) vertices.
// It is immutable planning input and contains no side effects.
type Route struct {
	DistanceMiles   float64
	DurationMinutes float64
	Geometry        []Coordinates
	Provider        string
}

// A place-name query resolved to a point.
type GeocodedPoint struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Source      string
}

func (p GeocodedPoint) Coordinates() Coordinates {
	return Coordinates{Lon: p.Longitude, Lat: p.Latitude}
}
