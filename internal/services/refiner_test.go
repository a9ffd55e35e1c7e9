package services

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-route-service/internal/domain"
)

func marginalNodes() []domain.WaypointNode {
	return fixtureNodes(
		[]float64{0, 250, 490, 700},
		[]*float64{price(3.5), price(3.4), price(3.39), nil},
	)
}

func TestRefinePlanWithoutPenaltiesReturnsGreedyPlan(t *testing.T) {
	nodes := marginalNodes()
	greedy, err := PlanFuelStops(nodes, 10, 500)
	require.NoError(t, err)

	refined, err := RefinePlan(nodes, RefineOptions{MPG: 10, MaxRangeMiles: 500})

	require.NoError(t, err)
	assert.Equal(t, greedy, refined.Plan)
	assert.Equal(t, 0, refined.Iterations)
	assert.Equal(t, []float64{0, 250, 490}, actionPositions(refined.Plan))
}

func TestRefinePlanStopPenaltyDropsMarginalStop(t *testing.T) {
	refined, err := RefinePlan(marginalNodes(), RefineOptions{MPG: 10, MaxRangeMiles: 500, StopPenalty: 1.0})

	require.NoError(t, err)
	assert.Equal(t, []float64{0, 250}, actionPositions(refined.Plan))
	assert.Equal(t, 1, refined.Iterations)
	assert.InDelta(t, 240.5, refined.Plan.TotalCost, 1e-9)
	assert.InDelta(t, 241.5, refined.Objective, 1e-9)
	assert.Len(t, refined.Nodes, 3)
}

func TestRefinePlanStopCountMonotonicInPenalty(t *testing.T) {
	penalties := []float64{0, 0.25, 0.5, 1, 2, 5, 25, 100}

	prev := -1
	for _, p := range penalties {
		refined, err := RefinePlan(marginalNodes(), RefineOptions{MPG: 10, MaxRangeMiles: 500, StopPenalty: p})
		require.NoError(t, err)

		stops := refined.Plan.StationStops()
		if prev >= 0 {
			assert.LessOrEqual(t, stops, prev, "penalty %.2f", p)
		}
		prev = stops
	}
}

// A penalty larger than any achievable fuel bill means no accepted move may add
// a stop, so the refined plan never has more stops than the greedy one. Every
// penalty must also end at or below the greedy plan's objective.
func TestRefinePlanPenaltySweepOnRandomRoutes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const mpg, maxRange = 8.0, 400.0
	// Routes are at most 1500 miles at under $4/gal: cost < 750.
	const dominating = 10_000.0
	penalties := []float64{0.25, 1, 5, 25, dominating}

	feasible := 0
	for trial := 0; trial < 150; trial++ {
		count := 2 + rng.Intn(12)
		positions := []float64{0}
		for i := 0; i < count; i++ {
			positions = append(positions, rng.Float64()*1500)
		}
		slices.Sort(positions)

		prices := make([]*float64, len(positions))
		for i := range positions {
			prices[i] = price(3 + rng.Float64()*0.99)
		}
		prices[len(prices)-1] = nil

		nodes := fixtureNodes(positions, prices)
		greedy, err := PlanFuelStops(nodes, mpg, maxRange)
		if err != nil {
			require.True(t, domain.IsPlanningError(err))
			continue
		}
		feasible++
		greedyStops := greedy.StationStops()

		for _, p := range penalties {
			opts := RefineOptions{MPG: mpg, MaxRangeMiles: maxRange, StopPenalty: p}
			refined, err := RefinePlan(nodes, opts)
			require.NoError(t, err, "trial %d penalty %.2f", trial, p)

			assert.LessOrEqual(t, refined.Objective, greedy.TotalCost+float64(greedyStops)*p+1e-9,
				"trial %d penalty %.2f", trial, p)
			assert.InDelta(t, Objective(refined.Plan, opts), refined.Objective, 1e-9)
			assert.InDelta(t, positions[len(positions)-1]/mpg, refined.Plan.TotalGallons, 1e-6,
				"trial %d penalty %.2f", trial, p)

			lowest, final := simulateTank(refined.Nodes, refined.Plan, mpg)
			assert.GreaterOrEqual(t, lowest, -Tolerance, "trial %d penalty %.2f", trial, p)
			assert.InDelta(t, 0.0, final, 1e-6, "trial %d penalty %.2f", trial, p)

			if p == dominating {
				assert.LessOrEqual(t, refined.Plan.StationStops(), greedyStops, "trial %d", trial)
			}
		}
	}
	assert.Greater(t, feasible, 0)
}

func TestRefinePlanRemovesSmallNearDestinationStop(t *testing.T) {
	nodes := fixtureNodes(
		[]float64{0, 300, 495, 500},
		[]*float64{price(3.0), price(3.5), price(2.0), nil},
	)
	opts := RefineOptions{MPG: 10, MaxRangeMiles: 500, MinStopGallons: 1.5}

	greedy, err := PlanFuelStops(nodes, 10, 500)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 495}, actionPositions(greedy))
	assert.InDelta(t, 0.5, greedy.Actions[1].GallonsPurchased, 1e-9)

	refined, err := RefinePlan(nodes, opts)

	require.NoError(t, err)
	assert.Equal(t, []float64{0}, actionPositions(refined.Plan))
	assert.InDelta(t, 150.0, refined.Plan.TotalCost, 1e-9)
	assert.Less(t, refined.Objective, SmallStopPenalty)
}

func TestRefinePlanKeepsInfeasibleRemovalsOut(t *testing.T) {
	nodes := fixtureNodes(
		[]float64{0, 400, 800},
		[]*float64{price(3.0), price(3.1), nil},
	)

	refined, err := RefinePlan(nodes, RefineOptions{MPG: 10, MaxRangeMiles: 500, StopPenalty: 1000})

	require.NoError(t, err)
	assert.Equal(t, []float64{0, 400}, actionPositions(refined.Plan))
	assert.Equal(t, 0, refined.Iterations)
}

func TestRefinePlanValidation(t *testing.T) {
	_, err := RefinePlan(marginalNodes(), RefineOptions{MPG: 10, MaxRangeMiles: 500, MinStopGallons: -1})
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))

	_, err = RefinePlan(marginalNodes(), RefineOptions{MPG: 10, MaxRangeMiles: 500, StopPenalty: -0.5})
	assert.True(t, errors.Is(err, domain.ErrInvalidParameter))

	_, err = RefinePlan(fixtureNodes([]float64{0, 700}, []*float64{price(3), nil}), RefineOptions{MPG: 10, MaxRangeMiles: 500, StopPenalty: 1})
	assert.True(t, errors.Is(err, domain.ErrUnreachableSegment))
}

// Stations near the destination are only ever removed together. A station
// without a purchase of its own gets no single-node move, even when removing it
// alone might reach a better local optimum.
func TestRemovalMovesGroupsNearDestinationStationsOnly(t *testing.T) {
	nodes := fixtureNodes(
		[]float64{0, 100, 490, 495, 500},
		[]*float64{price(3.0), price(3.2), price(2.0), price(1.9), nil},
	)
	plan := domain.FuelPlan{Actions: []domain.StopAction{
		{Node: nodes[0], GallonsPurchased: 49},
		{Node: nodes[2], GallonsPurchased: 0.5},
	}}

	moves := RemovalMoves(nodes, plan, RefineOptions{MPG: 10, MaxRangeMiles: 500, MinStopGallons: 1.5})

	assert.Equal(t, []RemovalMove{
		{Keys: []string{nodes[2].Key}},
		{Keys: []string{nodes[2].Key, nodes[3].Key}},
	}, moves)
}

func TestRemovalMovesWithoutMinimumHasNoGroupedMove(t *testing.T) {
	nodes := marginalNodes()
	plan, err := PlanFuelStops(nodes, 10, 500)
	require.NoError(t, err)

	moves := RemovalMoves(nodes, plan, RefineOptions{MPG: 10, MaxRangeMiles: 500, StopPenalty: 1})

	assert.Equal(t, []RemovalMove{
		{Keys: []string{nodes[1].Key}},
		{Keys: []string{nodes[2].Key}},
	}, moves)
}

func TestWithoutNodesCopies(t *testing.T) {
	nodes := marginalNodes()

	reduced := WithoutNodes(nodes, []string{nodes[1].Key})

	assert.Len(t, reduced, 3)
	assert.Len(t, nodes, 4)
	assert.Equal(t, "station-1", nodes[1].Key)
}

func TestObjective(t *testing.T) {
	nodes := marginalNodes()
	plan := domain.FuelPlan{
		TotalCost: 100,
		Actions: []domain.StopAction{
			{Node: nodes[0], GallonsPurchased: 0.2},
			{Node: nodes[1], GallonsPurchased: 1.0},
			{Node: nodes[2], GallonsPurchased: 10},
		},
	}

	got := Objective(plan, RefineOptions{StopPenalty: 2, MinStopGallons: 1.5})

	// origin purchase is neither a station stop nor a small stop
	assert.InDelta(t, 100+2*2+SmallStopPenalty, got, 1e-9)
}
