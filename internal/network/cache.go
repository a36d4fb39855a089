package network

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"commutewise/internal/models"
	"commutewise/internal/store"
)

// Cache holds the persisted route network for the list and map views:
// all routes, all stop attachments, plus ephemeral hover/focus/editing
// selection. Reload is the only writer of the data slices.
type Cache struct {
	routes store.RouteStore

	mu         sync.Mutex
	routeRows  []models.Route
	routeStops []models.RouteStop
	loading    bool
	lastErr    error

	hoverRouteID      uint
	focusedTerminalID uint
	editingRoute      *models.Route
}

func NewCache(routes store.RouteStore) *Cache {
	return &Cache{routes: routes}
}

// Reload fetches the route set and the attachment set concurrently.
// An attachment fetch failure degrades to an empty attachment list so
// the view stays usable; a route fetch failure is fatal to the reload.
func (c *Cache) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.lastErr = nil
	c.mu.Unlock()

	var (
		wg        sync.WaitGroup
		routes    []models.Route
		stops     []models.RouteStop
		routesErr error
		stopsErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		routes, routesErr = c.routes.ListRoutes(ctx)
	}()
	go func() {
		defer wg.Done()
		stops, stopsErr = c.routes.ListRouteStops(ctx)
	}()
	wg.Wait()

	if stopsErr != nil {
		// access-policy rejections land here; routes stay visible
		logrus.WithError(stopsErr).Warn("network: attachment fetch failed, degrading to empty list")
		stops = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if routesErr != nil {
		c.lastErr = routesErr
		return routesErr
	}
	c.routeRows = routes
	c.routeStops = stops
	return nil
}

// Routes returns the cached route set, newest first.
func (c *Cache) Routes() []models.Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Route, len(c.routeRows))
	copy(out, c.routeRows)
	return out
}

// RouteStops returns the cached attachment set.
func (c *Cache) RouteStops() []models.RouteStop {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.RouteStop, len(c.routeStops))
	copy(out, c.routeStops)
	return out
}

func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error from the last reload, if any.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SetHoverRoute records the route highlighted in the UI; 0 clears it.
func (c *Cache) SetHoverRoute(routeID uint) {
	c.mu.Lock()
	c.hoverRouteID = routeID
	c.mu.Unlock()
}

func (c *Cache) HoverRoute() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hoverRouteID
}

// SetFocusedTerminal records the terminal stop in focus; 0 clears it.
func (c *Cache) SetFocusedTerminal(stopID uint) {
	c.mu.Lock()
	c.focusedTerminalID = stopID
	c.mu.Unlock()
}

func (c *Cache) FocusedTerminal() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focusedTerminalID
}

// StartEditRoute opens the metadata edit overlay for a route. Only
// name, mode, fares and the strict flag are editable there.
func (c *Cache) StartEditRoute(route models.Route) {
	c.mu.Lock()
	r := route
	c.editingRoute = &r
	c.mu.Unlock()
}

func (c *Cache) ClearEditingRoute() {
	c.mu.Lock()
	c.editingRoute = nil
	c.mu.Unlock()
}

func (c *Cache) EditingRoute() *models.Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editingRoute == nil {
		return nil
	}
	r := *c.editingRoute
	return &r
}

// GroupByTerminal attaches each cached route to a terminal stop for
// display. Primary signal: the sequence-0 attachment when its stop is a
// terminal. Fallback: the route's stored origin reference. A route
// whose origin is not a terminal stays ungrouped.
func (c *Cache) GroupByTerminal(stops []models.Stop) map[uint][]models.Route {
	c.mu.Lock()
	routes := make([]models.Route, len(c.routeRows))
	copy(routes, c.routeRows)
	attachments := make([]models.RouteStop, len(c.routeStops))
	copy(attachments, c.routeStops)
	c.mu.Unlock()

	stopByID := make(map[uint]models.Stop, len(stops))
	for _, s := range stops {
		stopByID[s.ID] = s
	}

	originStopByRoute := make(map[uint]uint)
	for _, a := range attachments {
		if a.Sequence == 0 {
			originStopByRoute[a.RouteID] = a.StopID
		}
	}

	grouped := make(map[uint][]models.Route)
	attached := make(map[uint]bool)

	for _, r := range routes {
		stopID, ok := originStopByRoute[r.ID]
		if !ok {
			continue
		}
		stop, ok := stopByID[stopID]
		if !ok || !stop.IsTerminal() {
			continue
		}
		grouped[stop.ID] = append(grouped[stop.ID], r)
		attached[r.ID] = true
	}

	// fallback for routes without a sequence-0 attachment
	for _, r := range routes {
		if attached[r.ID] || r.OriginID == 0 {
			continue
		}
		stop, ok := stopByID[r.OriginID]
		if !ok || !stop.IsTerminal() {
			continue
		}
		grouped[stop.ID] = append(grouped[stop.ID], r)
	}

	return grouped
}
