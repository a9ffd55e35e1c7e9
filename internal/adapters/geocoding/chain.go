package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/ports"
)

const DefaultTTL = 24 * time.Hour

// Chain resolves a query from the cache, then each geocoder in turn. The
// first successful result is cached. A geocoder reporting
// domain.ErrLocationNotFound passes to the next one; any other error stops
// the chain.
type Chain struct {
	cache     ports.GeocodeCache
	geocoders []ports.Geocoder
	ttl       time.Duration
}

// NewChain builds a chain; cache may be nil.
func NewChain(cache ports.GeocodeCache, ttl time.Duration, geocoders ...ports.Geocoder) *Chain {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Chain{cache: cache, geocoders: geocoders, ttl: ttl}
}

func (c *Chain) Geocode(ctx context.Context, query string) (*domain.GeocodedPoint, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("geocode: %w: location input cannot be empty", domain.ErrLocationNotFound)
	}
	reqID := obs.RequestID(ctx)

	if c.cache != nil {
		p, ok, err := c.cache.GetPoint(ctx, query)
		if err != nil {
			log.Printf("req_id=%s op=geocode.Chain cache get failed err=%v", reqID, err)
		} else if ok {
			return p, nil
		}
	}

	for _, g := range c.geocoders {
		p, err := g.Geocode(ctx, query)
		if errors.Is(err, domain.ErrLocationNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("geocode %q: %w", query, err)
		}

		if c.cache != nil {
			if err := c.cache.PutPoint(ctx, query, p, c.ttl); err != nil {
				log.Printf("req_id=%s op=geocode.Chain cache put failed err=%v", reqID, err)
			}
		}
		return p, nil
	}

	return nil, fmt.Errorf("unable to geocode location %q: %w", query, domain.ErrLocationNotFound)
}
