package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/gazetteer"
)

func testLocal() *Local {
	return NewLocal(gazetteer.NewIndex([]gazetteer.Entry{
		{City: "Dallas", State: "TX", Latitude: 32.78, Longitude: -96.80},
		{City: "Houston", State: "TX", Latitude: 29.76, Longitude: -95.37},
	}))
}

func TestLocalGeocode(t *testing.T) {
	p, err := testLocal().Geocode(context.Background(), "dallas, tx")

	require.NoError(t, err)
	assert.Equal(t, 32.78, p.Latitude)
	assert.Equal(t, "dallas, TX", p.DisplayName)
	assert.Equal(t, SourceLocal, p.Source)
}

func TestLocalGeocodeStateFallback(t *testing.T) {
	p, err := testLocal().Geocode(context.Background(), "Austin, TX")

	require.NoError(t, err)
	assert.InDelta(t, (32.78+29.76)/2, p.Latitude, 1e-9)
}

func TestLocalGeocodeNotFound(t *testing.T) {
	for _, q := range []string{"Dallas", "Portland, OR"} {
		_, err := testLocal().Geocode(context.Background(), q)
		assert.ErrorIs(t, err, domain.ErrLocationNotFound, q)
	}
}

func TestNominatimGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "1600 Main St, Dallas", r.URL.Query().Get("q"))
		assert.Equal(t, "us", r.URL.Query().Get("countrycodes"))
		assert.Equal(t, "fuel-route-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"lat":"32.7801","lon":"-96.8005","display_name":"1600 Main St, Dallas, Texas"}]`))
	}))
	defer srv.Close()

	n, err := NewNominatim(srv.URL, "fuel-route-test", 100, time.Second)
	require.NoError(t, err)

	p, err := n.Geocode(context.Background(), "1600 Main St, Dallas")

	require.NoError(t, err)
	assert.Equal(t, 32.7801, p.Latitude)
	assert.Equal(t, -96.8005, p.Longitude)
	assert.Equal(t, SourceNominatim, p.Source)
}

func TestNominatimEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	n, err := NewNominatim(srv.URL, "ua", 100, time.Second)
	require.NoError(t, err)

	_, err = n.Geocode(context.Background(), "zzzz")
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)
}

func TestNominatimUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n, err := NewNominatim(srv.URL, "ua", 100, time.Second)
	require.NoError(t, err)

	_, err = n.Geocode(context.Background(), "x")
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
}

func TestNominatimRequiresUserAgent(t *testing.T) {
	_, err := NewNominatim("http://unused", " ", 1, time.Second)
	assert.Error(t, err)
}

func TestNominatimRateLimitHonoursContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	n, err := NewNominatim(srv.URL, "ua", 0.001, time.Second)
	require.NoError(t, err)

	_, _ = n.Geocode(context.Background(), "first")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = n.Geocode(ctx, "second")

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

type countingGeocoder struct {
	point *domain.GeocodedPoint
	err   error
	calls int
}

func (g *countingGeocoder) Geocode(context.Context, string) (*domain.GeocodedPoint, error) {
	g.calls++
	return g.point, g.err
}

type mapGeocodeCache struct {
	mu     sync.Mutex
	points map[string]*domain.GeocodedPoint
}

func (c *mapGeocodeCache) GetPoint(_ context.Context, q string) (*domain.GeocodedPoint, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.points[q]
	return p, ok, nil
}

func (c *mapGeocodeCache) PutPoint(_ context.Context, q string, p *domain.GeocodedPoint, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points[q] = p
	return nil
}

func TestChainFallsThroughAndCaches(t *testing.T) {
	cache := &mapGeocodeCache{points: map[string]*domain.GeocodedPoint{}}
	remote := &countingGeocoder{point: &domain.GeocodedPoint{Latitude: 1, Longitude: 2, Source: SourceNominatim}}
	chain := NewChain(cache, 0, testLocal(), remote)

	p, err := chain.Geocode(context.Background(), "  1600 Main St, Dallas ")
	require.NoError(t, err)
	assert.Equal(t, SourceNominatim, p.Source)

	_, err = chain.Geocode(context.Background(), "1600 Main St, Dallas")
	require.NoError(t, err)
	assert.Equal(t, 1, remote.calls)
	assert.Contains(t, cache.points, "1600 Main St, Dallas")
}

func TestChainPrefersLocal(t *testing.T) {
	remote := &countingGeocoder{point: &domain.GeocodedPoint{}}
	p, err := NewChain(nil, 0, testLocal(), remote).Geocode(context.Background(), "Houston, TX")

	require.NoError(t, err)
	assert.Equal(t, SourceLocal, p.Source)
	assert.Zero(t, remote.calls)
}

func TestChainErrors(t *testing.T) {
	_, err := NewChain(nil, 0, testLocal()).Geocode(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)

	_, err = NewChain(nil, 0, testLocal()).Geocode(context.Background(), "somewhere odd")
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)

	boom := &domain.UpstreamError{Service: "nominatim", Err: errors.New("dial tcp")}
	_, err = NewChain(nil, 0, testLocal(), &countingGeocoder{err: boom}).Geocode(context.Background(), "somewhere odd")
	var upstream *domain.UpstreamError
	assert.ErrorAs(t, err, &upstream)
}
