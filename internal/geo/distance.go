// Package geo holds the great-circle helpers used to place stations along a route.
package geo

import (
	"math"

	"fuel-route-service/internal/domain"
)

// EarthRadiusMiles is the mean Earth radius used by Haversine.
const EarthRadiusMiles = 3958.8

// Haversine returns the great-circle distance in miles between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := radians(lat1)
	lat2Rad := radians(lat2)
	dLat := lat2Rad - lat1Rad
	dLon := radians(lon2 - lon1)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1Rad)*math.Cos(lat2Rad)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMiles * c
}

// CumulativeDistances returns the running along-route distance in miles for
// each polyline vertex. The first element is 0 and the result has the same
// length as the input.
func CumulativeDistances(polyline []domain.Coordinates) []float64 {
	if len(polyline) == 0 {
		return []float64{}
	}

	out := make([]float64, len(polyline))
	total := 0.0
	for i := 1; i < len(polyline); i++ {
		prev, cur := polyline[i-1], polyline[i]
		total += Haversine(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
		out[i] = total
	}
	return out
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
