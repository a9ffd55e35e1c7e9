package services

import (
	"context"
	"fmt"

	"fuel-route-service/internal/domain"
)

// fixtureNodes builds a node list from positions and prices. A nil price marks
// the terminal, non-purchasable node; every other non-origin node is a station.
func fixtureNodes(positions []float64, prices []*float64) []domain.WaypointNode {
	nodes := make([]domain.WaypointNode, 0, len(positions))
	for i, pos := range positions {
		switch {
		case i == 0:
			nodes = append(nodes, domain.StartNode(*prices[i]))
		case prices[i] == nil:
			nodes = append(nodes, domain.EndNode(pos))
		default:
			nodes = append(nodes, domain.StationNode(domain.StationCandidate{
				StationID:      int64(i),
				Name:           fmt.Sprintf("Station %d", i),
				PricePerGallon: *prices[i],
				AlongMiles:     pos,
			}))
		}
	}
	return nodes
}

func price(v float64) *float64 { return &v }

func actionPositions(plan domain.FuelPlan) []float64 {
	out := make([]float64, 0, len(plan.Actions))
	for _, a := range plan.Actions {
		out = append(out, a.Node.PositionMiles)
	}
	return out
}

// simulateTank replays a plan and returns the lowest tank level seen on arrival
// at any node, and the fuel left at the destination.
func simulateTank(nodes []domain.WaypointNode, plan domain.FuelPlan, mpg float64) (lowest float64, final float64) {
	bought := make(map[string]float64, len(plan.Actions))
	for _, a := range plan.Actions {
		bought[a.Node.Key] += a.GallonsPurchased
	}

	tank := 0.0
	for i := 0; i < len(nodes)-1; i++ {
		tank += bought[nodes[i].Key]
		tank -= (nodes[i+1].PositionMiles - nodes[i].PositionMiles) / mpg
		lowest = min(lowest, tank)
	}
	return lowest, tank
}

type stubCatalog struct {
	stations   []domain.FuelStation
	avg        float64
	hasAvg     bool
	err        error
	lastBounds domain.BoundingBox
}

func (c *stubCatalog) ListStationsInBounds(_ context.Context, bounds domain.BoundingBox) ([]domain.FuelStation, error) {
	c.lastBounds = bounds
	if c.err != nil {
		return nil, c.err
	}
	return c.stations, nil
}

func (c *stubCatalog) AveragePrice(context.Context) (float64, bool, error) {
	if c.err != nil {
		return 0, false, c.err
	}
	return c.avg, c.hasAvg, nil
}

// straightRoute runs due east along latitude 40 from lon -100 to -90.
func straightRoute() []domain.Coordinates {
	coords := make([]domain.Coordinates, 0, 101)
	for i := 0; i <= 100; i++ {
		coords = append(coords, domain.Coordinates{Lon: -100 + float64(i)*0.1, Lat: 40})
	}
	return coords
}

func located(id int64, lat, lon, retail float64) domain.FuelStation {
	return domain.FuelStation{
		ID:          id,
		Name:        fmt.Sprintf("Stop %d", id),
		State:       "KS",
		RetailPrice: retail,
		Latitude:    &lat,
		Longitude:   &lon,
	}
}
