package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"commutewise/internal/models"
)

// Memory is an in-memory store used in tests and local development.
type Memory struct {
	mu         sync.Mutex
	nextID     uint
	stops      map[uint]models.Stop
	routes     map[uint]models.Route
	routeStops []models.RouteStop
}

func NewMemory() *Memory {
	return &Memory{
		nextID: 1,
		stops:  map[uint]models.Stop{},
		routes: map[uint]models.Route{},
	}
}

func (m *Memory) allocID() uint {
	id := m.nextID
	m.nextID++
	return id
}

func (m *Memory) ListStops(ctx context.Context) ([]models.Stop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Stop, 0, len(m.stops))
	for _, s := range m.stops {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetStop(ctx context.Context, id uint) (models.Stop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stops[id]
	if !ok {
		return models.Stop{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) UpsertStop(ctx context.Context, stop *models.Stop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stop.ID == 0 {
		stop.ID = m.allocID()
		stop.CreatedAt = time.Now()
	}
	stop.UpdatedAt = time.Now()
	m.stops[stop.ID] = *stop
	return nil
}

func (m *Memory) DeleteStop(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stops[id]; !ok {
		return ErrNotFound
	}
	delete(m.stops, id)
	return nil
}

func (m *Memory) CreateRoute(ctx context.Context, route *models.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	route.ID = m.allocID()
	route.CreatedAt = time.Now()
	route.UpdatedAt = route.CreatedAt
	m.routes[route.ID] = *route
	return nil
}

func (m *Memory) UpdateRouteMeta(ctx context.Context, id uint, patch RouteMetaPatch) (models.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	route, ok := m.routes[id]
	if !ok {
		return models.Route{}, ErrNotFound
	}
	route.Name = strings.TrimSpace(patch.Name)
	route.VehicleType = strings.ToLower(strings.TrimSpace(patch.VehicleType))
	route.FareAmount = patch.FareAmount
	route.DiscountedFareAmount = patch.DiscountedFareAmount
	route.IsStrict = patch.IsStrict
	route.UpdatedAt = time.Now()
	m.routes[id] = route
	return route, nil
}

func (m *Memory) ListRoutes(ctx context.Context) ([]models.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Route, 0, len(m.routes))
	for _, r := range m.routes {
		out = append(out, r)
	}
	// newest first
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) DeleteRoute(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.routes[id]; !ok {
		return ErrNotFound
	}
	delete(m.routes, id)
	kept := m.routeStops[:0]
	for _, rs := range m.routeStops {
		if rs.RouteID != id {
			kept = append(kept, rs)
		}
	}
	m.routeStops = kept
	return nil
}

func (m *Memory) CreateRouteStops(ctx context.Context, stops []models.RouteStop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rs := range stops {
		rs.ID = m.allocID()
		rs.CreatedAt = time.Now()
		rs.UpdatedAt = rs.CreatedAt
		m.routeStops = append(m.routeStops, rs)
	}
	return nil
}

func (m *Memory) ListRouteStops(ctx context.Context) ([]models.RouteStop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.RouteStop, len(m.routeStops))
	copy(out, m.routeStops)
	return out, nil
}
