package services

import (
	"context"
	"fmt"
	"slices"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/ports"
)

const (
	// Candidates this close to either route end would create zero-length segments.
	endpointExclusionMiles = 0.1
	// StartPriceWindowMiles is how far from the origin a station may be to set the start price.
	StartPriceWindowMiles = 40.0
	// DefaultStartPrice is used when the catalog has no prices at all.
	DefaultStartPrice = 3.5
)

// BuildWaypoints returns the ordered planning nodes: a synthetic origin priced
// at startPrice, one node per candidate strictly inside the route, and a
// non-purchasable destination at totalMiles.
func BuildWaypoints(startPrice float64, candidates []domain.StationCandidate, totalMiles float64) []domain.WaypointNode {
	nodes := make([]domain.WaypointNode, 0, len(candidates)+2)
	nodes = append(nodes, domain.StartNode(startPrice))

	for _, c := range candidates {
		if c.AlongMiles > endpointExclusionMiles && c.AlongMiles < totalMiles-endpointExclusionMiles {
			nodes = append(nodes, domain.StationNode(c))
		}
	}

	nodes = append(nodes, domain.EndNode(totalMiles))
	slices.SortStableFunc(nodes, func(a, b domain.WaypointNode) int {
		return cmpFloat(a.PositionMiles, b.PositionMiles)
	})
	return nodes
}

// EstimateStartPrice guesses the local price at the origin: the cheapest
// candidate within StartPriceWindowMiles, else the catalog average, else
// DefaultStartPrice.
func EstimateStartPrice(
	ctx context.Context,
	candidates []domain.StationCandidate,
	catalog ports.StationCatalog,
) (float64, error) {
	found := false
	best := 0.0
	for _, c := range candidates {
		if c.AlongMiles > StartPriceWindowMiles {
			continue
		}
		if !found || c.PricePerGallon < best {
			best = c.PricePerGallon
			found = true
		}
	}
	if found {
		return best, nil
	}

	if catalog == nil {
		return DefaultStartPrice, nil
	}

	avg, ok, err := catalog.AveragePrice(ctx)
	if err != nil {
		return 0, fmt.Errorf("estimate start price: average catalog price: %w", err)
	}
	if !ok {
		return DefaultStartPrice, nil
	}
	return avg, nil
}
