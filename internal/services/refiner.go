package services

import (
	"slices"

	"fuel-route-service/internal/domain"
)

const (
	// SmallStopPenalty dominates any realistic cost difference so that
	// under-minimum station purchases disappear whenever a feasible alternative exists.
	SmallStopPenalty = 1_000_000.0
	// Strict improvement margin for accepting a move.
	improvementTolerance = 1e-9
)

// RefineOptions configures the local search over a greedy plan.
type RefineOptions struct {
	MPG            float64
	MaxRangeMiles  float64
	MinStopGallons float64
	StopPenalty    float64
}

// RefinedPlan is the accepted plan together with the nodes it was computed on.
type RefinedPlan struct {
	Plan       domain.FuelPlan
	Nodes      []domain.WaypointNode
	Objective  float64
	Iterations int
}

// RemovalMove names the node keys a refinement step drops.
type RemovalMove struct {
	Keys []string
}

// Objective scores a plan as cost plus a per-station-stop penalty plus a large
// penalty for each station purchase under the minimum size.
func Objective(plan domain.FuelPlan, opts RefineOptions) float64 {
	stationStops := 0
	smallStops := 0
	for _, a := range plan.Actions {
		if !a.Node.IsStation() {
			continue
		}
		stationStops++
		if a.GallonsPurchased < opts.MinStopGallons-improvementTolerance {
			smallStops++
		}
	}
	return plan.TotalCost + float64(stationStops)*opts.StopPenalty + float64(smallStops)*SmallStopPenalty
}

// RefinePlan runs the greedy planner on nodes and then repeatedly removes the
// station stop (or group of near-destination stations) whose removal most
// improves the objective, until no move improves it.
//
// Every accepted move strictly lowers the objective and removes at least one
// node, so the loop ends after at most as many iterations as there are stations.
// With no stop penalty and no minimum purchase the greedy plan is returned as is.
func RefinePlan(nodes []domain.WaypointNode, opts RefineOptions) (RefinedPlan, error) {
	if opts.MinStopGallons < 0 {
		return RefinedPlan{}, domain.NewPlanningError(domain.ErrInvalidParameter, "minimum stop gallons must not be negative")
	}
	if opts.StopPenalty < 0 {
		return RefinedPlan{}, domain.NewPlanningError(domain.ErrInvalidParameter, "stop penalty must not be negative")
	}

	plan, err := PlanFuelStops(nodes, opts.MPG, opts.MaxRangeMiles)
	if err != nil {
		return RefinedPlan{}, err
	}

	current := RefinedPlan{
		Plan:      plan,
		Nodes:     nodes,
		Objective: Objective(plan, opts),
	}
	if opts.StopPenalty == 0 && opts.MinStopGallons == 0 {
		return current, nil
	}

	for {
		var best *RefinedPlan
		for _, move := range RemovalMoves(current.Nodes, current.Plan, opts) {
			reduced := WithoutNodes(current.Nodes, move.Keys)
			candidate, err := PlanFuelStops(reduced, opts.MPG, opts.MaxRangeMiles)
			if err != nil {
				continue
			}

			score := Objective(candidate, opts)
			if score >= current.Objective-improvementTolerance {
				continue
			}
			if best == nil || score < best.Objective {
				best = &RefinedPlan{Plan: candidate, Nodes: reduced, Objective: score}
			}
		}

		if best == nil {
			return current, nil
		}
		best.Iterations = current.Iterations + 1
		current = *best
	}
}

// RemovalMoves lists the candidate refinement moves for a plan: one move per
// station where a purchase was made, plus one grouped move dropping every
// station too close to the destination for any purchase there to reach
// MinStopGallons.
func RemovalMoves(nodes []domain.WaypointNode, plan domain.FuelPlan, opts RefineOptions) []RemovalMove {
	moves := make([]RemovalMove, 0, len(plan.Actions)+1)
	for _, a := range plan.Actions {
		if a.Node.IsStation() {
			moves = append(moves, RemovalMove{Keys: []string{a.Node.Key}})
		}
	}

	if opts.MinStopGallons > 0 && opts.MPG > 0 && len(nodes) > 0 {
		end := nodes[len(nodes)-1].PositionMiles
		threshold := opts.MinStopGallons * opts.MPG

		var near []string
		for _, n := range nodes {
			if n.IsStation() && end-n.PositionMiles < threshold {
				near = append(near, n.Key)
			}
		}
		if len(near) > 0 {
			moves = append(moves, RemovalMove{Keys: near})
		}
	}

	return moves
}

// WithoutNodes returns a copy of nodes with the given keys removed.
func WithoutNodes(nodes []domain.WaypointNode, keys []string) []domain.WaypointNode {
	out := make([]domain.WaypointNode, 0, len(nodes))
	for _, n := range nodes {
		if !slices.Contains(keys, n.Key) {
			out = append(out, n)
		}
	}
	return out
}
