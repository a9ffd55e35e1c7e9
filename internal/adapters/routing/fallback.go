package routing

import (
	"context"
	"errors"
	"fmt"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/ports"
)

// Fallback tries each provider in order and returns the first route found.
type Fallback struct {
	providers []ports.RouteProvider
}

func NewFallback(providers ...ports.RouteProvider) *Fallback {
	return &Fallback{providers: providers}
}

func (f *Fallback) Name() string { return "auto" }

func (f *Fallback) FetchRoute(ctx context.Context, waypoints []domain.Coordinates) (*domain.Route, error) {
	if len(f.providers) == 0 {
		return nil, fmt.Errorf("fallback fetch route: %w: no routing providers available", domain.ErrRouteUnavailable)
	}

	errs := make([]error, 0, len(f.providers))
	for _, p := range f.providers {
		route, err := p.FetchRoute(ctx, waypoints)
		if err == nil {
			return route, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return nil, fmt.Errorf("unable to build route: %w", errors.Join(errs...))
}
