package routing

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/obs"
)

// polyline6 is the 1e-6 precision encoding OSRM emits for geometries=polyline6.
var polyline6 = polyline.Codec{Dim: 2, Scale: 1e6}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

// OSRMProvider fetches driving routes from an OSRM server.
// It is safe for concurrent use.
type OSRMProvider struct {
	client  client
	baseURL string
}

func NewOSRMProvider(baseURL string, timeout time.Duration, maxRetries int) *OSRMProvider {
	return &OSRMProvider{
		client:  newClient("osrm", timeout, maxRetries),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (p *OSRMProvider) Name() string { return "osrm" }

func (p *OSRMProvider) FetchRoute(ctx context.Context, waypoints []domain.Coordinates) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "osrm.FetchRoute")(&err)

	if err := validateWaypoints("osrm", waypoints); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "polyline6")
	q.Set("steps", "false")
	endpoint := fmt.Sprintf("%s/route/v1/driving/%s?%s", p.baseURL, coordinatePath(waypoints), q.Encode())

	var decoded osrmResponse
	if err := p.client.getJSON(ctx, endpoint, &decoded); err != nil {
		return nil, fmt.Errorf("osrm fetch route: %w", err)
	}

	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		msg := decoded.Message
		if msg == "" {
			msg = "route not available"
		}
		return nil, fmt.Errorf("osrm fetch route: %w: %s", domain.ErrRouteUnavailable, msg)
	}

	r := decoded.Routes[0]
	geometry, err := decodePolyline6(r.Geometry)
	if err != nil {
		return nil, fmt.Errorf("osrm fetch route: %w", err)
	}

	return &domain.Route{
		DistanceMiles:   r.Distance * milesPerMeter,
		DurationMinutes: r.Duration / 60,
		Geometry:        geometry,
		Provider:        p.Name(),
	}, nil
}

// decodePolyline6 turns an encoded lat,lon polyline into lon/lat coordinates.
func decodePolyline6(encoded string) ([]domain.Coordinates, error) {
	coords, rest, err := polyline6.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode geometry: %d trailing bytes", len(rest))
	}

	out := make([]domain.Coordinates, 0, len(coords))
	for _, c := range coords {
		out = append(out, domain.Coordinates{Lat: c[0], Lon: c[1]})
	}
	return out, nil
}
