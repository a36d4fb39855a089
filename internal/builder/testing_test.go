package builder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/twpayne/go-geom"
	"gorm.io/gorm"

	"commutewise/internal/directions"
	"commutewise/internal/models"
)

func gormModel(id uint) gorm.Model {
	return gorm.Model{ID: id}
}

func lineString(t *testing.T, coords ...float64) *geom.LineString {
	t.Helper()
	if len(coords)%2 != 0 {
		t.Fatal("lineString needs lng,lat pairs")
	}
	cs := make([]geom.Coord, 0, len(coords)/2)
	for i := 0; i < len(coords); i += 2 {
		cs = append(cs, geom.Coord{coords[i], coords[i+1]})
	}
	ls, err := geom.NewLineString(geom.XY).SetCoords(cs)
	if err != nil {
		t.Fatalf("SetCoords: %v", err)
	}
	return ls
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// stubStops is a fixed stop collection.
type stubStops struct {
	mu    sync.Mutex
	stops []models.Stop
	err   error
}

func (s *stubStops) ListStops(ctx context.Context) ([]models.Stop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.Stop, len(s.stops))
	copy(out, s.stops)
	return out, nil
}

// providerCall is one pending request against blockingProvider.
type providerCall struct {
	waypoints []directions.Waypoint
	profile   directions.Profile
	radius    float64
	release   chan releaseWith
}

type releaseWith struct {
	result *directions.Result
	err    error
}

// blockingProvider records every request and holds it until released.
// It deliberately ignores context cancellation so tests can exercise
// the request-counter staleness path.
type blockingProvider struct {
	mu    sync.Mutex
	calls []*providerCall
}

func (p *blockingProvider) Route(ctx context.Context, waypoints []directions.Waypoint, profile directions.Profile, snapRadiusM float64) (*directions.Result, error) {
	call := &providerCall{
		waypoints: waypoints,
		profile:   profile,
		radius:    snapRadiusM,
		release:   make(chan releaseWith, 1),
	}
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()

	out := <-call.release
	return out.result, out.err
}

func (p *blockingProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *blockingProvider) call(i int) *providerCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[i]
}

// instantProvider answers every request immediately with a fixed result.
type instantProvider struct {
	mu     sync.Mutex
	calls  int
	result *directions.Result
	err    error
}

func (p *instantProvider) Route(ctx context.Context, waypoints []directions.Waypoint, profile directions.Profile, snapRadiusM float64) (*directions.Result, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func (p *instantProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func terminal(id uint, name string, lat, lng float64) models.Stop {
	return models.Stop{
		Model: gormModel(id),
		Name:  name,
		Kind:  models.StopKindTerminal,
		Lat:   lat,
		Lng:   lng,
	}
}
