package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/obs"
)

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Nominatim geocodes free-form US queries against an OSM Nominatim server.
// Requests are throttled by a shared limiter to respect the public usage policy.
type Nominatim struct {
	session   *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
}

func NewNominatim(baseURL, userAgent string, requestsPerSecond float64, timeout time.Duration) (*Nominatim, error) {
	if strings.TrimSpace(userAgent) == "" {
		return nil, errors.New("nominatim: user agent is required")
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Nominatim{
		session:   &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}, nil
}

func (n *Nominatim) Geocode(ctx context.Context, query string) (_ *domain.GeocodedPoint, err error) {
	defer obs.Time(ctx, "nominatim.Geocode")(&err)

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nominatim geocode: wait for rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")
	q.Set("countrycodes", "us")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("nominatim geocode: create request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.session.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Service: "nominatim", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.UpstreamError{
			Service:    "nominatim",
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(b))),
		}
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, &domain.UpstreamError{Service: "nominatim", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("nominatim geocode %q: %w", query, domain.ErrLocationNotFound)
	}

	r := results[0]
	lat, latErr := strconv.ParseFloat(r.Lat, 64)
	lon, lonErr := strconv.ParseFloat(r.Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil, &domain.UpstreamError{Service: "nominatim", Err: fmt.Errorf("invalid coordinates %q,%q", r.Lat, r.Lon)}
	}

	name := r.DisplayName
	if name == "" {
		name = query
	}
	return &domain.GeocodedPoint{Latitude: lat, Longitude: lon, DisplayName: name, Source: SourceNominatim}, nil
}
