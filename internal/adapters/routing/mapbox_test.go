package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-route-service/internal/domain"
)

func TestNewMapboxProviderRequiresToken(t *testing.T) {
	_, err := NewMapboxProvider("", "", "driving", time.Second, 1)
	assert.Error(t, err)
}

func TestMapboxFetchRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/directions/v5/mapbox/driving-traffic/-96.797000,32.776700;-95.369800,29.760400", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("access_token"))
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":16093.44,"duration":900,
			"geometry":{"type":"LineString","coordinates":[[-96.797,32.7767],[-95.3698,29.7604]]}}]}`))
	}))
	defer srv.Close()

	p, err := NewMapboxProvider(srv.URL, "secret", "driving-traffic", time.Second, 1)
	require.NoError(t, err)
	assert.Equal(t, "driving-traffic", p.Profile())

	route, err := p.FetchRoute(context.Background(), twoPoints)

	require.NoError(t, err)
	assert.Equal(t, "mapbox", route.Provider)
	assert.InDelta(t, 10.0, route.DistanceMiles, 1e-3)
	assert.InDelta(t, 15.0, route.DurationMinutes, 1e-9)
	assert.Equal(t, twoPoints, route.Geometry)
}

func TestMapboxErrorsDoNotLeakToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	p, err := NewMapboxProvider(srv.URL, "secret-token", "driving", time.Second, 1)
	require.NoError(t, err)

	_, err = p.FetchRoute(context.Background(), twoPoints)

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
}

func TestMapboxNoRoutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	p, err := NewMapboxProvider(srv.URL, "t", "driving", time.Second, 1)
	require.NoError(t, err)

	_, err = p.FetchRoute(context.Background(), twoPoints)
	assert.ErrorIs(t, err, domain.ErrRouteUnavailable)
}
