package domain

import "fmt"

const (
	StartNodeKey = "start"
	EndNodeKey   = "end"
)

// WaypointNode is one planning position along the route: the synthetic
// origin, a candidate station, or the synthetic destination.
//
// Price is nil only for the terminal node. Station is nil for the synthetic
// origin and destination.
type WaypointNode struct {
	Key           string
	PositionMiles float64
	Price         *float64
	Purchasable   bool
	Station       *StationCandidate
}

func StartNode(price float64) WaypointNode {
	return WaypointNode{
		Key:         StartNodeKey,
		Price:       &price,
		Purchasable: true,
	}
}

func EndNode(positionMiles float64) WaypointNode {
	return WaypointNode{
		Key:           EndNodeKey,
		PositionMiles: positionMiles,
	}
}

func StationNode(c StationCandidate) WaypointNode {
	price := c.PricePerGallon
	return WaypointNode{
		Key:           StationNodeKey(c.StationID),
		PositionMiles: c.AlongMiles,
		Price:         &price,
		Purchasable:   true,
		Station:       &c,
	}
}

func StationNodeKey(stationID int64) string {
	return fmt.Sprintf("station-%d", stationID)
}

// IsStation reports whether the node stands for a real catalog station.
func (n WaypointNode) IsStation() bool { return n.Station != nil }
