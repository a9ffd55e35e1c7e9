package repositories

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/tidwall/rtree"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/ports"
)

// StationSource is what StationIndex loads from.
type StationSource interface {
	ListLocatedStations(ctx context.Context) ([]domain.FuelStation, error)
	AveragePrice(ctx context.Context) (float64, bool, error)
	ListStations(ctx context.Context, filter ports.StationFilter) ([]domain.FuelStation, error)
}

// StationIndex serves bounding-box queries from an in-memory R-tree built
// from the catalog. It is safe for concurrent use; Reload swaps the tree.
type StationIndex struct {
	source StationSource

	mu     sync.RWMutex
	tree   *rtree.RTree
	size   int
	avg    float64
	hasAvg bool
}

// NewStationIndex loads every located station from source.
func NewStationIndex(ctx context.Context, source StationSource) (*StationIndex, error) {
	idx := &StationIndex{source: source}
	if err := idx.Reload(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Reload rebuilds the tree from the source.
func (i *StationIndex) Reload(ctx context.Context) (err error) {
	defer obs.Time(ctx, "stations.index.Reload")(&err)

	stations, err := i.source.ListLocatedStations(ctx)
	if err != nil {
		return fmt.Errorf("reload station index: %w", err)
	}
	avg, ok, err := i.source.AveragePrice(ctx)
	if err != nil {
		return fmt.Errorf("reload station index: %w", err)
	}

	// Points are stored as [lat, lon] with min == max.
	tree := &rtree.RTree{}
	for _, s := range stations {
		if !s.Located() {
			continue
		}
		p := [2]float64{*s.Latitude, *s.Longitude}
		tree.Insert(p, p, s)
	}

	i.mu.Lock()
	i.tree = tree
	i.size = tree.Len()
	i.avg, i.hasAvg = avg, ok
	i.mu.Unlock()

	log.Printf("op=stations.index.Reload stations=%d", tree.Len())
	return nil
}

func (i *StationIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.size
}

// ListStationsInBounds returns indexed stations inside bounds ordered by id.
func (i *StationIndex) ListStationsInBounds(_ context.Context, bounds domain.BoundingBox) ([]domain.FuelStation, error) {
	i.mu.RLock()
	tree := i.tree
	i.mu.RUnlock()

	results := []domain.FuelStation{}
	if tree == nil {
		return results, nil
	}

	tree.Search(
		[2]float64{min(bounds.MinLat, bounds.MaxLat), min(bounds.MinLon, bounds.MaxLon)},
		[2]float64{max(bounds.MinLat, bounds.MaxLat), max(bounds.MinLon, bounds.MaxLon)},
		func(_, _ [2]float64, data interface{}) bool {
			if s, ok := data.(domain.FuelStation); ok {
				results = append(results, s)
			}
			return true
		},
	)

	slices.SortFunc(results, func(a, b domain.FuelStation) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return results, nil
}

func (i *StationIndex) AveragePrice(context.Context) (float64, bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.avg, i.hasAvg, nil
}

// ListStations is served by the underlying source.
func (i *StationIndex) ListStations(ctx context.Context, filter ports.StationFilter) ([]domain.FuelStation, error) {
	return i.source.ListStations(ctx, filter)
}
