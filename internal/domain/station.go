package domain

// Represents a single fuel station row from the price catalog.
// Coordinates are resolved from city/state geography during import and
// may be missing for rows that could not be located.
type FuelStation struct {
	ID          int64
	OPISID      string
	Name        string
	Address     string
	City        string
	State       string
	RackID      string
	RetailPrice float64
	Latitude    *float64
	Longitude   *float64
}

// Located reports whether the station has usable coordinates.
func (s FuelStation) Located() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// A catalog station projected onto a specific route.
// Candidates are created once per planning request and never mutated.
type StationCandidate struct {
	StationID      int64
	OPISID         string
	Name           string
	Address        string
	City           string
	State          string
	PricePerGallon float64
	Latitude       float64
	Longitude      float64
	AlongMiles     float64
	OffsetMiles    float64
}
