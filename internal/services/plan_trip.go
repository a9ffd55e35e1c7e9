package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/geo"
	"fuel-route-service/internal/metrics"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/ports"
)

type RouteMode string

const (
	// RouteModeDirect returns the origin to destination route the plan was computed on.
	RouteModeDirect RouteMode = "direct"
	// RouteModeViaStops re-routes through the chosen stations for the returned geometry.
	RouteModeViaStops RouteMode = "via_stops"
)

// TripRequest is a fully defaulted trip planning request.
type TripRequest struct {
	StartLocation  string
	FinishLocation string
	MPG            float64
	MaxRangeMiles  float64
	RouteMode      RouteMode
	CorridorMiles  float64
	// Nil means the corridor width.
	MaxStopDetourMiles *float64
	MinStopGallons     float64
	StopPenalty        float64
}

// TripDeps are the ports PlanTrip talks to. Metrics may be nil.
type TripDeps struct {
	Geocoder ports.Geocoder
	Router   ports.RouteProvider
	Catalog  ports.StationCatalog
	Metrics  metrics.PlannerRecorder
}

// ResolvedLocation pairs the caller's query with what it geocoded to.
type ResolvedLocation struct {
	Query string
	Point domain.GeocodedPoint
}

type TripPlan struct {
	Origin      ResolvedLocation
	Destination ResolvedLocation
	// Route the plan was computed on.
	Route *domain.Route
	// Geometry returned to the caller; differs from Route only in via_stops mode.
	DisplayRoute *domain.Route
	RouteMode    RouteMode

	MPG           float64
	MaxRangeMiles float64
	Plan          domain.FuelPlan
	Objective     float64
	Iterations    int

	CandidateCount int
	CorridorMiles  float64
	RoutingCalls   int
	Assumptions    []string
}

var baseAssumptions = []string{
	"Trip starts with an empty tank and buys just enough fuel to reach the next cheaper station in range.",
	"Fuel station coordinates are approximated from city and state geography.",
	"Stations are matched to the nearest sampled route vertex, not the exact route segment.",
}

// PlanTrip geocodes both ends, fetches one route, matches catalog stations onto it
// and returns the refined fuel plan.
func PlanTrip(ctx context.Context, req TripRequest, deps TripDeps) (_ *TripPlan, err error) {
	defer obs.Time(ctx, "services.PlanTrip")(&err)

	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	start := time.Now()
	defer func() {
		recorder.RecordPlan(planOutcome(err), time.Since(start).Seconds())
	}()

	if deps.Geocoder == nil || deps.Router == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("plan trip: missing dependency")
	}
	if req.RouteMode == "" {
		req.RouteMode = RouteModeDirect
	}

	origin, destination, err := geocodePair(ctx, deps.Geocoder, req.StartLocation, req.FinishLocation)
	if err != nil {
		return nil, err
	}

	route, err := deps.Router.FetchRoute(ctx, []domain.Coordinates{origin.Coordinates(), destination.Coordinates()})
	if err != nil {
		return nil, fmt.Errorf("plan trip: fetch route: %w", err)
	}
	if len(route.Geometry) < 2 {
		return nil, fmt.Errorf("plan trip: %w: route geometry has %d points", domain.ErrRouteUnavailable, len(route.Geometry))
	}
	routingCalls := 1

	cumulative := geo.CumulativeDistances(route.Geometry)
	candidates, err := FetchRouteCandidates(ctx, deps.Catalog, route, cumulative, MatchOptions{
		CorridorMiles:  req.CorridorMiles,
		MaxDetourMiles: req.MaxStopDetourMiles,
	})
	if err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}

	startPrice, err := EstimateStartPrice(ctx, candidates, deps.Catalog)
	if err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}

	nodes := BuildWaypoints(startPrice, candidates, route.DistanceMiles)
	refined, err := RefinePlan(nodes, RefineOptions{
		MPG:            req.MPG,
		MaxRangeMiles:  req.MaxRangeMiles,
		MinStopGallons: req.MinStopGallons,
		StopPenalty:    req.StopPenalty,
	})
	if err != nil {
		return nil, err
	}

	out := &TripPlan{
		Origin:         ResolvedLocation{Query: req.StartLocation, Point: *origin},
		Destination:    ResolvedLocation{Query: req.FinishLocation, Point: *destination},
		Route:          route,
		DisplayRoute:   route,
		RouteMode:      req.RouteMode,
		MPG:            req.MPG,
		MaxRangeMiles:  req.MaxRangeMiles,
		Plan:           refined.Plan,
		Objective:      refined.Objective,
		Iterations:     refined.Iterations,
		CandidateCount: len(candidates),
		CorridorMiles:  req.CorridorMiles,
		Assumptions:    append([]string(nil), baseAssumptions...),
	}

	if req.RouteMode == RouteModeViaStops {
		if via := stopWaypoints(origin, destination, refined.Plan); len(via) > 2 {
			routingCalls++
			display, rerr := deps.Router.FetchRoute(ctx, via)
			if rerr != nil {
				reqID := obs.RequestID(ctx)
				log.Printf("req_id=%s op=services.PlanTrip via_stops reroute failed err=%v", reqID, rerr)
				out.Assumptions = append(out.Assumptions, "Routing through the chosen stops failed; the direct route geometry is returned instead.")
			} else {
				out.DisplayRoute = display
				out.Assumptions = append(out.Assumptions, "Returned geometry detours through the chosen stops; fuel quantities are computed on the direct route.")
			}
		}
	}
	out.RoutingCalls = routingCalls

	recorder.RecordPlanShape(len(candidates), refined.Plan.StationStops(), refined.Iterations, refined.Plan.TotalGallons)
	return out, nil
}

func geocodePair(ctx context.Context, g ports.Geocoder, from, to string) (*domain.GeocodedPoint, *domain.GeocodedPoint, error) {
	var origin, destination *domain.GeocodedPoint

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		p, err := g.Geocode(egCtx, from)
		if err != nil {
			return fmt.Errorf("plan trip: geocode start location %q: %w", from, err)
		}
		origin = p
		return nil
	})
	eg.Go(func() error {
		p, err := g.Geocode(egCtx, to)
		if err != nil {
			return fmt.Errorf("plan trip: geocode finish location %q: %w", to, err)
		}
		destination = p
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return origin, destination, nil
}

// stopWaypoints lists origin, every station where fuel is bought, then destination.
func stopWaypoints(origin, destination *domain.GeocodedPoint, plan domain.FuelPlan) []domain.Coordinates {
	out := []domain.Coordinates{origin.Coordinates()}
	for _, a := range plan.Actions {
		if s := a.Node.Station; s != nil {
			out = append(out, domain.Coordinates{Lon: s.Longitude, Lat: s.Latitude})
		}
	}
	return append(out, destination.Coordinates())
}

func planOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case domain.IsPlanningError(err),
		errors.Is(err, domain.ErrLocationNotFound),
		errors.Is(err, domain.ErrRouteUnavailable):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
