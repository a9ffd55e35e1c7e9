package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/geo"
)

func TestMatchStationsFiltersByCorridor(t *testing.T) {
	route := straightRoute()
	cumulative := geo.CumulativeDistances(route)

	stations := []domain.FuelStation{
		located(1, 40.1, -99.0, 3.10), // about 7 miles north of the route
		located(2, 42.0, -95.0, 2.90), // outside the padded box
		located(3, 40.5, -95.0, 3.00), // inside the box, about 35 miles off
		{ID: 4, Name: "No coordinates", RetailPrice: 1.00},
	}

	got := MatchStations(route, cumulative, stations, 60)

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].StationID)
	assert.Equal(t, int64(3), got[1].StationID)
	assert.Less(t, got[0].OffsetMiles, 8.0)
	assert.InDelta(t, geo.Haversine(40, -100, 40, -99), got[0].AlongMiles, 1.0)
	assert.Less(t, got[0].AlongMiles, got[1].AlongMiles)
	assert.Equal(t, 3.10, got[0].PricePerGallon)
}

func TestMatchStationsMaxDetourTightensOffset(t *testing.T) {
	route := straightRoute()
	cumulative := geo.CumulativeDistances(route)
	stations := []domain.FuelStation{
		located(1, 40.1, -99.0, 3.10),
		located(3, 40.5, -95.0, 3.00),
	}
	detour := 20.0

	got := MatchStationsWithOptions(route, cumulative, stations, MatchOptions{CorridorMiles: 60, MaxDetourMiles: &detour})

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].StationID)
}

func TestMatchStationsEmptyRoute(t *testing.T) {
	got := MatchStations(nil, nil, []domain.FuelStation{located(1, 40, -99, 3)}, 60)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestPruneCandidatesKeepsCheapestPerBucket(t *testing.T) {
	candidates := []domain.StationCandidate{
		{StationID: 1, AlongMiles: 5, PricePerGallon: 3.50, OffsetMiles: 1},
		{StationID: 2, AlongMiles: 10, PricePerGallon: 3.10, OffsetMiles: 4},
		{StationID: 3, AlongMiles: 12, PricePerGallon: 3.10, OffsetMiles: 2},
		{StationID: 4, AlongMiles: 20, PricePerGallon: 3.90, OffsetMiles: 1},
		{StationID: 5, AlongMiles: 30, PricePerGallon: 3.20, OffsetMiles: 1},
		{StationID: 6, AlongMiles: 40, PricePerGallon: 4.00, OffsetMiles: 1},
	}

	got := PruneCandidates(candidates)

	ids := make([]int64, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.StationID)
	}
	// bucket [0,35): 3 and 2 tie on price, 3 is closer; 5 is next; 1 and 4 drop.
	assert.Equal(t, []int64{2, 3, 5, 6}, ids)
}

func TestPruneCandidatesBucketBound(t *testing.T) {
	var candidates []domain.StationCandidate
	for i := 0; i < 100; i++ {
		candidates = append(candidates, domain.StationCandidate{
			StationID:      int64(i),
			AlongMiles:     float64(i) * 3.7,
			PricePerGallon: 3 + float64(i%7)/10,
		})
	}

	got := PruneCandidates(candidates)

	perBucket := map[int]int{}
	for i, c := range got {
		perBucket[int(c.AlongMiles/StationBucketMiles)]++
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].AlongMiles, c.AlongMiles)
		}
	}
	for b, n := range perBucket {
		assert.LessOrEqual(t, n, MaxStationsPerBucket, "bucket %d", b)
	}
}

func TestFetchRouteCandidatesQueriesCatalogBounds(t *testing.T) {
	geometry := straightRoute()
	route := &domain.Route{DistanceMiles: 530, Geometry: geometry}
	catalog := &stubCatalog{stations: []domain.FuelStation{located(1, 40.1, -99.0, 3.10)}}

	got, err := FetchRouteCandidates(context.Background(), catalog, route, geo.CumulativeDistances(geometry), MatchOptions{CorridorMiles: 60})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, geo.CorridorBounds(geometry, 60), catalog.lastBounds)
}

func TestFetchRouteCandidatesWrapsCatalogError(t *testing.T) {
	boom := errors.New("db down")
	catalog := &stubCatalog{err: boom}
	geometry := straightRoute()

	_, err := FetchRouteCandidates(context.Background(), catalog, &domain.Route{Geometry: geometry}, geo.CumulativeDistances(geometry), MatchOptions{CorridorMiles: 60})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
