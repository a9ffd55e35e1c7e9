package geo

import (
	"math"

	"fuel-route-service/internal/domain"
)

const (
	milesPerDegreeLat = 69.0
	// Floor for the longitude divisor so the padding stays bounded near the poles.
	minLonDivisor = 15.0
)

// CorridorBounds returns the polyline's bounding box padded by corridorMiles.
// An empty polyline yields the zero box.
func CorridorBounds(polyline []domain.Coordinates, corridorMiles float64) domain.BoundingBox {
	if len(polyline) == 0 {
		return domain.BoundingBox{}
	}

	minLat, maxLat := polyline[0].Lat, polyline[0].Lat
	minLon, maxLon := polyline[0].Lon, polyline[0].Lon
	for _, c := range polyline[1:] {
		minLat = math.Min(minLat, c.Lat)
		maxLat = math.Max(maxLat, c.Lat)
		minLon = math.Min(minLon, c.Lon)
		maxLon = math.Max(maxLon, c.Lon)
	}

	midLat := (minLat + maxLat) / 2
	latPad := corridorMiles / milesPerDegreeLat
	lonPad := corridorMiles / math.Max(milesPerDegreeLat*math.Abs(math.Cos(radians(midLat))), minLonDivisor)

	return domain.BoundingBox{
		MinLat: minLat - latPad,
		MaxLat: maxLat + latPad,
		MinLon: minLon - lonPad,
		MaxLon: maxLon + lonPad,
	}
}

// SampleIndexes picks at most maxSamples evenly spaced vertex indexes out of n,
// always including the first and last vertex. A cap below 2 is raised to 2.
// A non-positive cap returns every index.
func SampleIndexes(n, maxSamples int) []int {
	if n <= 0 {
		return []int{}
	}

	if maxSamples <= 0 || n <= maxSamples {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	// Ceiling step keeps the count, endpoint included, within maxSamples.
	maxSamples = max(2, maxSamples)
	step := (n - 1 + maxSamples - 2) / (maxSamples - 1)
	out := make([]int, 0, maxSamples)
	for i := 0; i < n; i += step {
		out = append(out, i)
	}
	if out[len(out)-1] != n-1 {
		out = append(out, n-1)
	}
	return out
}
