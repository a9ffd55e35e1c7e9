package routing

import (
	"context"
	"fmt"
	"sync"

	"fuel-route-service/internal/domain"
)

// MockRouteProvider replays a fixed route or error and counts calls.
type MockRouteProvider struct {
	mu    sync.Mutex
	name  string
	route *domain.Route
	err   error
	calls int
}

func NewMockRouteProvider(name string, route *domain.Route, err error) *MockRouteProvider {
	return &MockRouteProvider{name: name, route: route, err: err}
}

func (m *MockRouteProvider) Name() string { return m.name }

func (m *MockRouteProvider) FetchRoute(ctx context.Context, waypoints []domain.Coordinates) (*domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if m.route == nil {
		return nil, fmt.Errorf("mock fetch route: %w", domain.ErrRouteUnavailable)
	}
	cp := *m.route
	return &cp, nil
}

func (m *MockRouteProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
