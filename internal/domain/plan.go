package domain

// A single fuel purchase made at a node.
type StopAction struct {
	Node             WaypointNode
	GallonsPurchased float64
	PurchaseCost     float64
}

// Represents the fuel purchases computed for one route.
// A FuelPlan is the output of the planner and lists purchases in route order.
type FuelPlan struct {
	TotalCost    float64
	TotalGallons float64
	Actions      []StopAction
}

// StationStops counts purchases made at real stations (the origin is excluded).
func (p FuelPlan) StationStops() int {
	n := 0
	for _, a := range p.Actions {
		if a.Node.IsStation() {
			n++
		}
	}
	return n
}
