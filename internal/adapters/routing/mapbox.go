package routing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/obs"
)

const defaultMapboxBaseURL = "https://api.mapbox.com"

type mapboxResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// MapboxProvider fetches routes from the Mapbox Directions API.
type MapboxProvider struct {
	client  client
	baseURL string
	token   string
	profile string
}

func NewMapboxProvider(baseURL, token, profile string, timeout time.Duration, maxRetries int) (*MapboxProvider, error) {
	if token == "" {
		return nil, errors.New("mapbox access token is empty")
	}
	if baseURL == "" {
		baseURL = defaultMapboxBaseURL
	}
	if profile == "" {
		profile = "driving"
	}
	return &MapboxProvider{
		client:  newClient("mapbox", timeout, maxRetries),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		profile: profile,
	}, nil
}

func (p *MapboxProvider) Name() string { return "mapbox" }

// Profile is part of the route cache key since it changes the result.
func (p *MapboxProvider) Profile() string { return p.profile }

func (p *MapboxProvider) FetchRoute(ctx context.Context, waypoints []domain.Coordinates) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "mapbox.FetchRoute")(&err)

	if err := validateWaypoints("mapbox", waypoints); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("alternatives", "false")
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	q.Set("steps", "false")
	q.Set("access_token", p.token)
	endpoint := fmt.Sprintf("%s/directions/v5/mapbox/%s/%s?%s", p.baseURL, p.profile, coordinatePath(waypoints), q.Encode())

	var decoded mapboxResponse
	if err := p.client.getJSON(ctx, endpoint, &decoded); err != nil {
		return nil, fmt.Errorf("mapbox fetch route: %w", redactToken(err, p.token))
	}

	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		msg := decoded.Message
		if msg == "" {
			msg = "route not available"
		}
		return nil, fmt.Errorf("mapbox fetch route: %w: %s", domain.ErrRouteUnavailable, msg)
	}

	r := decoded.Routes[0]
	geometry := make([]domain.Coordinates, 0, len(r.Geometry.Coordinates))
	for _, c := range r.Geometry.Coordinates {
		if len(c) < 2 {
			return nil, fmt.Errorf("mapbox fetch route: invalid coordinate with %d values", len(c))
		}
		geometry = append(geometry, domain.Coordinates{Lon: c[0], Lat: c[1]})
	}

	return &domain.Route{
		DistanceMiles:   r.Distance * milesPerMeter,
		DurationMinutes: r.Duration / 60,
		Geometry:        geometry,
		Provider:        p.Name(),
	}, nil
}

// redactToken keeps the access token out of logged url.Error messages.
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
