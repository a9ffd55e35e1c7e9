package api

import (
	"net/http"

	"fuel-route-service/internal/api/handlers"
	"fuel-route-service/internal/config"
	"fuel-route-service/internal/ports"
	"fuel-route-service/internal/services"
)

// RouterDeps are the collaborators the HTTP layer needs.
type RouterDeps struct {
	Trip     services.TripDeps
	Planner  config.PlannerConfig
	Stations ports.StationLister
	// Metrics is mounted at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	tripHandler := handlers.NewTripPlanHandler(deps.Trip, deps.Planner)

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/trip-plan", tripHandler.Plan)

	if deps.Stations != nil {
		stationHandler := &handlers.StationHandler{Lister: deps.Stations}
		mux.HandleFunc("/stations", stationHandler.List)
	}
	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, deps.Metrics)
	}

	// Request IDs must be set before the access log reads them.
	return requestIDMiddleware(loggingMiddleware(mux))
}
