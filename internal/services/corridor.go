package services

import (
	"context"
	"fmt"
	"math"
	"slices"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/geo"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/ports"
)

const (
	// MaxRouteSamplePoints caps how many polyline vertices each station is projected against.
	MaxRouteSamplePoints = 350
	// StationBucketMiles is the width of one along-route pruning bucket.
	StationBucketMiles = 35.0
	// MaxStationsPerBucket is how many candidates survive per bucket.
	MaxStationsPerBucket = 3
)

// MatchOptions tunes corridor matching beyond the corridor half-width.
type MatchOptions struct {
	CorridorMiles float64
	// MaxDetourMiles drops candidates further than this from the route.
	// Nil means the corridor width.
	MaxDetourMiles *float64
}

func (o MatchOptions) offsetLimit() float64 {
	if o.MaxDetourMiles != nil && *o.MaxDetourMiles < o.CorridorMiles {
		return *o.MaxDetourMiles
	}
	return o.CorridorMiles
}

// MatchStations maps catalog stations onto the route polyline and prunes them
// to a bounded representative set.
//
// Each station inside the padded bounding box is projected onto its nearest
// sampled vertex; stations further than corridorMiles are dropped. Survivors are
// bucketed by along-route distance and only the cheapest few per bucket are kept.
// This is an approximation of exact projection that trades completeness for a
// bounded planner input.
func MatchStations(
	polyline []domain.Coordinates,
	cumulative []float64,
	stations []domain.FuelStation,
	corridorMiles float64,
) []domain.StationCandidate {
	return MatchStationsWithOptions(polyline, cumulative, stations, MatchOptions{CorridorMiles: corridorMiles})
}

// MatchStationsWithOptions is MatchStations with an optional max detour.
func MatchStationsWithOptions(
	polyline []domain.Coordinates,
	cumulative []float64,
	stations []domain.FuelStation,
	opts MatchOptions,
) []domain.StationCandidate {
	if len(polyline) == 0 || len(cumulative) != len(polyline) {
		return []domain.StationCandidate{}
	}

	bounds := geo.CorridorBounds(polyline, opts.CorridorMiles)
	samples := geo.SampleIndexes(len(polyline), MaxRouteSamplePoints)
	limit := opts.offsetLimit()

	candidates := make([]domain.StationCandidate, 0, len(stations))
	for _, s := range stations {
		if !s.Located() || !bounds.Contains(*s.Latitude, *s.Longitude) {
			continue
		}

		offset, along := projectToRoute(*s.Latitude, *s.Longitude, polyline, samples, cumulative)
		if offset > limit {
			continue
		}

		candidates = append(candidates, domain.StationCandidate{
			StationID:      s.ID,
			OPISID:         s.OPISID,
			Name:           s.Name,
			Address:        s.Address,
			City:           s.City,
			State:          s.State,
			PricePerGallon: s.RetailPrice,
			Latitude:       *s.Latitude,
			Longitude:      *s.Longitude,
			AlongMiles:     along,
			OffsetMiles:    offset,
		})
	}

	return PruneCandidates(candidates)
}

// projectToRoute returns the distance to the nearest sampled vertex and that
// vertex's along-route distance.
func projectToRoute(
	lat, lon float64,
	polyline []domain.Coordinates,
	samples []int,
	cumulative []float64,
) (offset float64, along float64) {
	offset = math.Inf(1)
	for _, idx := range samples {
		v := polyline[idx]
		d := geo.Haversine(lat, lon, v.Lat, v.Lon)
		if d < offset {
			offset = d
			along = cumulative[idx]
		}
	}
	return offset, along
}

// PruneCandidates keeps the cheapest MaxStationsPerBucket candidates (ties broken
// by smaller offset) in each StationBucketMiles-wide along-route bucket, and
// returns them sorted by along-route position.
func PruneCandidates(candidates []domain.StationCandidate) []domain.StationCandidate {
	buckets := make(map[int][]domain.StationCandidate)
	for _, c := range candidates {
		b := int(math.Floor(c.AlongMiles / StationBucketMiles))
		buckets[b] = append(buckets[b], c)
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	selected := make([]domain.StationCandidate, 0, min(len(candidates), len(keys)*MaxStationsPerBucket))
	for _, k := range keys {
		bucket := buckets[k]
		slices.SortStableFunc(bucket, func(a, b domain.StationCandidate) int {
			if a.PricePerGallon != b.PricePerGallon {
				return cmpFloat(a.PricePerGallon, b.PricePerGallon)
			}
			return cmpFloat(a.OffsetMiles, b.OffsetMiles)
		})
		if len(bucket) > MaxStationsPerBucket {
			bucket = bucket[:MaxStationsPerBucket]
		}
		selected = append(selected, bucket...)
	}

	slices.SortStableFunc(selected, func(a, b domain.StationCandidate) int {
		return cmpFloat(a.AlongMiles, b.AlongMiles)
	})
	return selected
}

// FetchRouteCandidates queries the catalog for stations in the route's padded
// bounding box and matches them onto the route.
func FetchRouteCandidates(
	ctx context.Context,
	catalog ports.StationCatalog,
	route *domain.Route,
	cumulative []float64,
	opts MatchOptions,
) (_ []domain.StationCandidate, err error) {
	defer obs.Time(ctx, "services.FetchRouteCandidates")(&err)

	if catalog == nil {
		return nil, fmt.Errorf("fetch route candidates: catalog is nil")
	}
	if route == nil || len(route.Geometry) == 0 {
		return []domain.StationCandidate{}, nil
	}

	bounds := geo.CorridorBounds(route.Geometry, opts.CorridorMiles)
	stations, err := catalog.ListStationsInBounds(ctx, bounds)
	if err != nil {
		return nil, fmt.Errorf("fetch route candidates: list stations in bounds: %w", err)
	}

	return MatchStationsWithOptions(route.Geometry, cumulative, stations, opts), nil
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
