package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/twpayne/go-polyline"

	"fuel-route-service/internal/api/dto"
	"fuel-route-service/internal/config"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/services"
)

const constraintEpsilon = 1e-6

// PlanTripFunc matches services.PlanTrip.
type PlanTripFunc func(ctx context.Context, req services.TripRequest, deps services.TripDeps) (*services.TripPlan, error)

// TripPlanHandler validates trip requests, applies configured defaults and
// renders the planned fuel stops.
type TripPlanHandler struct {
	Deps     services.TripDeps
	Defaults config.PlannerConfig
	// PlanFn defaults to services.PlanTrip.
	PlanFn PlanTripFunc

	validate *validator.Validate
}

func NewTripPlanHandler(deps services.TripDeps, defaults config.PlannerConfig) *TripPlanHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &TripPlanHandler{
		Deps:     deps,
		Defaults: defaults,
		PlanFn:   services.PlanTrip,
		validate: v,
	}
}

func (h *TripPlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowOnly(w, r, http.MethodPost) {
		return
	}

	var req dto.TripPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		if errors.Is(err, errTrailingData) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	tripReq, fieldErrs := h.buildRequest(req)
	if len(fieldErrs) > 0 {
		writeJSON(w, r, http.StatusBadRequest, map[string]any{
			"detail": "validation failed",
			"errors": fieldErrs,
		})
		return
	}

	plan := h.PlanFn
	if plan == nil {
		plan = services.PlanTrip
	}
	result, err := plan(r.Context(), tripReq, h.Deps)
	if err != nil {
		status, msg := classifyPlanError(err)
		if status >= http.StatusInternalServerError {
			reqID := obs.RequestID(r.Context())
			log.Printf("req_id=%s plan trip failed: status=%d err=%v", reqID, status, err)
		}
		writeError(w, r, status, msg)
		return
	}

	writeJSON(w, r, http.StatusOK, tripPlanResponse(result, tripReq))
}

// buildRequest validates the body and fills unset fields from configuration.
func (h *TripPlanHandler) buildRequest(req dto.TripPlanRequest) (services.TripRequest, map[string]string) {
	fieldErrs := map[string]string{}

	req.StartLocation = strings.TrimSpace(req.StartLocation)
	req.FinishLocation = strings.TrimSpace(req.FinishLocation)

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fieldErrs[fe.Field()] = fieldMessage(fe)
			}
		} else {
			fieldErrs["body"] = err.Error()
		}
	}

	d := h.Defaults
	out := services.TripRequest{
		StartLocation:  req.StartLocation,
		FinishLocation: req.FinishLocation,
		MPG:            floatOr(req.MPG, d.DefaultMPG),
		MaxRangeMiles:  floatOr(req.MaxRangeMiles, d.DefaultMaxRangeMiles),
		RouteMode:      services.RouteMode(req.RouteMode),
		CorridorMiles:  d.CorridorMiles,
		MinStopGallons: floatOr(req.MinStopGallons, d.DefaultMinStopGallons),
		StopPenalty:    floatOr(req.StopPenaltyUSD, d.DefaultStopPenalty),
	}
	if out.RouteMode == "" {
		out.RouteMode = services.RouteModeDirect
	}

	switch detour := req.MaxStopDetourMiles; {
	case !detour.Set:
		v := d.DefaultMaxDetourMiles
		out.MaxStopDetourMiles = &v
	case detour.Valid:
		if detour.Value < 0 {
			fieldErrs["max_stop_detour_miles"] = "must be greater than or equal to 0"
		}
		v := detour.Value
		out.MaxStopDetourMiles = &v
	}

	if d.EnforceVehicleConstraints {
		if math.Abs(out.MPG-d.DefaultMPG) > constraintEpsilon {
			fieldErrs["mpg"] = fmt.Sprintf("vehicle constraint: mpg must be %g", d.DefaultMPG)
		}
		if math.Abs(out.MaxRangeMiles-d.DefaultMaxRangeMiles) > constraintEpsilon {
			fieldErrs["max_range_miles"] = fmt.Sprintf("vehicle constraint: max_range_miles must be %g", d.DefaultMaxRangeMiles)
		}
	}

	return out, fieldErrs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// classifyPlanError maps service errors to an HTTP status and client message.
// Upstream failures are checked first: a joined routing error may carry both.
func classifyPlanError(err error) (int, string) {
	var upstream *domain.UpstreamError
	switch {
	case errors.As(err, &upstream):
		return http.StatusBadGateway, fmt.Sprintf("External API error: %v", upstream)
	case domain.IsPlanningError(err),
		errors.Is(err, domain.ErrLocationNotFound),
		errors.Is(err, domain.ErrRouteUnavailable):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "planning timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func tripPlanResponse(p *services.TripPlan, req services.TripRequest) dto.TripPlanResponse {
	stops := make([]dto.FuelStopResponse, 0, len(p.Plan.Actions))
	for i, a := range p.Plan.Actions {
		stops = append(stops, stopResponse(i+1, a, p.Origin.Point))
	}

	display := p.DisplayRoute
	if display == nil {
		display = p.Route
	}

	var detour *float64
	if req.MaxStopDetourMiles != nil {
		v := *req.MaxStopDetourMiles
		detour = &v
	}

	return dto.TripPlanResponse{
		Origin:      endpointResponse(p.Origin),
		Destination: endpointResponse(p.Destination),
		Route: dto.RouteResponse{
			DistanceMiles:   round(p.Route.DistanceMiles, 3),
			DurationMinutes: round(p.Route.DurationMinutes, 2),
			Geometry:        geometryResponse(display.Geometry),
			Polyline:        encodePolyline(display.Geometry),
		},
		FuelPlan: dto.FuelPlanResponse{
			MaxRangeMiles:                  p.MaxRangeMiles,
			MPG:                            p.MPG,
			EstimatedTotalGallonsPurchased: round(p.Plan.TotalGallons, 3),
			EstimatedTotalCostUSD:          round(p.Plan.TotalCost, 2),
			StationStops:                   p.Plan.StationStops(),
			Stops:                          stops,
		},
		Meta: dto.MetaResponse{
			RouteAPICalls:               p.RoutingCalls,
			RouteProvider:               p.Route.Provider,
			RouteMode:                   string(p.RouteMode),
			CandidateStationsConsidered: p.CandidateCount,
			RouteStationCorridorMiles:   p.CorridorMiles,
			MaxStopDetourMiles:          detour,
			MinStopGallons:              req.MinStopGallons,
			StopPenaltyUSD:              req.StopPenalty,
			OptimizationObjective:       round(p.Objective, 4),
			RefineIterations:            p.Iterations,
			Assumptions:                 p.Assumptions,
		},
	}
}

func endpointResponse(l services.ResolvedLocation) dto.EndpointResponse {
	return dto.EndpointResponse{
		Query:     l.Query,
		Resolved:  l.Point.DisplayName,
		Latitude:  l.Point.Latitude,
		Longitude: l.Point.Longitude,
		Source:    l.Point.Source,
	}
}

func stopResponse(seq int, a domain.StopAction, origin domain.GeocodedPoint) dto.FuelStopResponse {
	var price float64
	if a.Node.Price != nil {
		price = *a.Node.Price
	}

	s := a.Node.Station
	if s == nil {
		return dto.FuelStopResponse{
			Sequence:         seq,
			Kind:             "trip_start_estimate",
			Label:            "Trip Start (estimated local fuel price)",
			PricePerGallon:   round(price, 4),
			GallonsPurchased: round(a.GallonsPurchased, 3),
			EstimatedCost:    round(a.PurchaseCost, 2),
			Location:         dto.LocationResponse{Latitude: origin.Latitude, Longitude: origin.Longitude},
		}
	}

	offset := round(s.OffsetMiles, 3)
	return dto.FuelStopResponse{
		Sequence:               seq,
		Kind:                   "fuel_station",
		StationID:              s.StationID,
		OPISTruckstopID:        s.OPISID,
		Name:                   s.Name,
		Address:                s.Address,
		City:                   s.City,
		State:                  s.State,
		PricePerGallon:         round(s.PricePerGallon, 4),
		DistanceToRouteMiles:   &offset,
		DistanceFromStartMiles: round(s.AlongMiles, 3),
		GallonsPurchased:       round(a.GallonsPurchased, 3),
		EstimatedCost:          round(a.PurchaseCost, 2),
		Location:               dto.LocationResponse{Latitude: s.Latitude, Longitude: s.Longitude},
	}
}

func geometryResponse(coords []domain.Coordinates) dto.GeometryResponse {
	out := make([][2]float64, 0, len(coords))
	for _, c := range coords {
		out = append(out, [2]float64{c.Lon, c.Lat})
	}
	return dto.GeometryResponse{Type: "LineString", Coordinates: out}
}

// encodePolyline writes the geometry as a precision-5 polyline of (lat, lon).
func encodePolyline(coords []domain.Coordinates) string {
	pts := make([][]float64, 0, len(coords))
	for _, c := range coords {
		pts = append(pts, []float64{c.Lat, c.Lon})
	}
	return string(polyline.EncodeCoords(pts))
}
