package services

import (
	"fuel-route-service/internal/domain"
)

// Tolerance absorbs floating point drift in distance and fuel arithmetic.
const Tolerance = 1e-6

// PlanFuelStops computes fuel purchases along nodes with a greedy forward simulation.
//
// At each node the vehicle buys just enough fuel to reach the first strictly
// cheaper node within range; when none exists it buys enough to reach the
// destination, or fills the tank if the destination is out of range. The tank
// starts empty and never exceeds maxRangeMiles/mpg.
// This is a heuristic; it does not search for a globally optimal purchase schedule.
func PlanFuelStops(nodes []domain.WaypointNode, mpg, maxRangeMiles float64) (domain.FuelPlan, error) {
	if mpg <= 0 {
		return domain.FuelPlan{}, domain.NewPlanningError(domain.ErrInvalidParameter, "miles per gallon must be greater than zero")
	}
	if maxRangeMiles <= 0 {
		return domain.FuelPlan{}, domain.NewPlanningError(domain.ErrInvalidParameter, "max range must be greater than zero")
	}
	if len(nodes) < 2 {
		return domain.FuelPlan{}, domain.NewPlanningError(domain.ErrInsufficientNodes, "at least start and end nodes are required")
	}

	tankCapacity := maxRangeMiles / mpg
	last := nodes[len(nodes)-1]

	plan := domain.FuelPlan{Actions: []domain.StopAction{}}
	tank := 0.0

	for i := 0; i < len(nodes)-1; i++ {
		current := nodes[i]
		segment := nodes[i+1].PositionMiles - current.PositionMiles

		if segment < -Tolerance {
			return domain.FuelPlan{}, domain.NewPlanningError(domain.ErrUnorderedNodes,
				"fuel nodes are not ordered by distance (%q at %.3f after %q at %.3f)",
				nodes[i+1].Key, nodes[i+1].PositionMiles, current.Key, current.PositionMiles)
		}
		if segment > maxRangeMiles+Tolerance {
			return domain.FuelPlan{}, domain.NewPlanningError(domain.ErrUnreachableSegment,
				"route cannot be completed: segment of %.1f miles from %q exceeds vehicle max range of %.1f miles",
				segment, current.Key, maxRangeMiles)
		}

		window := reachableWindow(nodes, i, maxRangeMiles)
		if len(window) == 0 {
			return domain.FuelPlan{}, domain.NewPlanningError(domain.ErrNoReachableNode,
				"no reachable node within max range from %q", current.Key)
		}

		var target float64
		if cheaper, ok := firstCheaper(nodes, current, window); ok {
			target = (nodes[cheaper].PositionMiles - current.PositionMiles) / mpg
		} else {
			toEnd := last.PositionMiles - current.PositionMiles
			if toEnd <= maxRangeMiles+Tolerance {
				target = toEnd / mpg
			} else {
				target = tankCapacity
			}
		}

		buy := max(0, target-tank)
		if buy > Tolerance {
			if !current.Purchasable || current.Price == nil {
				return domain.FuelPlan{}, domain.NewPlanningError(domain.ErrPurchaseAtNonPurchasable,
					"required fuel purchase of %.3f gallons at non-purchasable node %q", buy, current.Key)
			}

			cost := buy * *current.Price
			tank += buy
			plan.TotalGallons += buy
			plan.TotalCost += cost
			plan.Actions = append(plan.Actions, domain.StopAction{
				Node:             current,
				GallonsPurchased: buy,
				PurchaseCost:     cost,
			})
		}

		tank -= segment / mpg
		if tank < -Tolerance {
			return domain.FuelPlan{}, domain.NewPlanningError(domain.ErrNegativeFuelBalance,
				"calculated negative fuel balance of %.6f gallons leaving %q", tank, current.Key)
		}
		tank = max(tank, 0)
	}

	return plan, nil
}

// reachableWindow returns indexes of nodes after i within maxRangeMiles of node i.
func reachableWindow(nodes []domain.WaypointNode, i int, maxRangeMiles float64) []int {
	origin := nodes[i].PositionMiles
	window := make([]int, 0, 8)
	for j := i + 1; j < len(nodes); j++ {
		if nodes[j].PositionMiles-origin > maxRangeMiles+Tolerance {
			break
		}
		window = append(window, j)
	}
	return window
}

// firstCheaper returns the nearest node in window priced strictly below current.
func firstCheaper(nodes []domain.WaypointNode, current domain.WaypointNode, window []int) (int, bool) {
	if current.Price == nil {
		return 0, false
	}
	for _, j := range window {
		if p := nodes[j].Price; p != nil && *p < *current.Price {
			return j, true
		}
	}
	return 0, false
}
