package dto

import (
	"bytes"
	"encoding/json"
)

// OptionalFloat tells an absent field apart from an explicit null.
type OptionalFloat struct {
	Set   bool
	Valid bool
	Value float64
}

func (o *OptionalFloat) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Valid = false
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

type TripPlanRequest struct {
	StartLocation  string   `json:"start_location" validate:"required,max=255"`
	FinishLocation string   `json:"finish_location" validate:"required,max=255"`
	MPG            *float64 `json:"mpg" validate:"omitempty,gte=1"`
	MaxRangeMiles  *float64 `json:"max_range_miles" validate:"omitempty,gte=50"`
	RouteMode      string   `json:"route_mode" validate:"omitempty,oneof=direct via_stops"`
	// Null means "use the corridor width"; absent means the configured default.
	MaxStopDetourMiles OptionalFloat `json:"max_stop_detour_miles"`
	MinStopGallons     *float64      `json:"min_stop_gallons" validate:"omitempty,gte=0"`
	StopPenaltyUSD     *float64      `json:"stop_penalty_usd" validate:"omitempty,gte=0"`
}

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type EndpointResponse struct {
	Query     string  `json:"query"`
	Resolved  string  `json:"resolved"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Source    string  `json:"source"`
}

// GeometryResponse is a GeoJSON LineString with [lon, lat] pairs.
type GeometryResponse struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

type RouteResponse struct {
	DistanceMiles   float64          `json:"distance_miles"`
	DurationMinutes float64          `json:"duration_minutes"`
	Geometry        GeometryResponse `json:"geometry"`
	// Encoded polyline (precision 5) of the same geometry.
	Polyline string `json:"polyline"`
}

type FuelStopResponse struct {
	Sequence               int              `json:"sequence"`
	Kind                   string           `json:"kind"`
	Label                  string           `json:"label,omitempty"`
	StationID              int64            `json:"station_id,omitempty"`
	OPISTruckstopID        string           `json:"opis_truckstop_id,omitempty"`
	Name                   string           `json:"name,omitempty"`
	Address                string           `json:"address,omitempty"`
	City                   string           `json:"city,omitempty"`
	State                  string           `json:"state,omitempty"`
	PricePerGallon         float64          `json:"price_per_gallon"`
	DistanceToRouteMiles   *float64         `json:"distance_to_route_miles,omitempty"`
	DistanceFromStartMiles float64          `json:"distance_from_start_miles"`
	GallonsPurchased       float64          `json:"gallons_purchased"`
	EstimatedCost          float64          `json:"estimated_cost"`
	Location               LocationResponse `json:"location"`
}

type FuelPlanResponse struct {
	MaxRangeMiles                  float64            `json:"max_range_miles"`
	MPG                            float64            `json:"mpg"`
	EstimatedTotalGallonsPurchased float64            `json:"estimated_total_gallons_purchased"`
	EstimatedTotalCostUSD          float64            `json:"estimated_total_cost_usd"`
	StationStops                   int                `json:"station_stops"`
	Stops                          []FuelStopResponse `json:"stops"`
}

type MetaResponse struct {
	RouteAPICalls               int      `json:"route_api_calls"`
	RouteProvider               string   `json:"route_provider"`
	RouteMode                   string   `json:"route_mode"`
	CandidateStationsConsidered int      `json:"candidate_stations_considered"`
	RouteStationCorridorMiles   float64  `json:"route_station_corridor_miles"`
	MaxStopDetourMiles          *float64 `json:"max_stop_detour_miles"`
	MinStopGallons              float64  `json:"min_stop_gallons"`
	StopPenaltyUSD              float64  `json:"stop_penalty_usd"`
	OptimizationObjective       float64  `json:"optimization_objective"`
	RefineIterations            int      `json:"refine_iterations"`
	Assumptions                 []string `json:"assumptions"`
}

type TripPlanResponse struct {
	Origin      EndpointResponse `json:"origin"`
	Destination EndpointResponse `json:"destination"`
	Route       RouteResponse    `json:"route"`
	FuelPlan    FuelPlanResponse `json:"fuel_plan"`
	Meta        MetaResponse     `json:"meta"`
}
