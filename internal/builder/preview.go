package builder

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"commutewise/internal/directions"
	"commutewise/internal/models"
)

// snapRadiusMeters keeps snapped waypoints anchored near terminal
// locations despite street-network snapping.
const snapRadiusMeters = 50

// StopLister provides the current stop collection used to resolve
// route points.
type StopLister interface {
	ListStops(ctx context.Context) ([]models.Stop, error)
}

// PreviewEngine keeps the builder's path line in sync with its point
// list while a route is being built. Every change to the dependency set
// (building flag, points, transport mode) supersedes any in-flight
// request: a monotonic counter is stamped per request and only the
// latest request's result is ever written back.
type PreviewEngine struct {
	builder  *Builder
	stops    StopLister
	provider directions.Provider

	seq atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPreviewEngine wires the engine onto the builder's change hook.
// provider may be nil when the directions credential is missing; the
// preview then degrades to no line.
func NewPreviewEngine(b *Builder, stops StopLister, provider directions.Provider) *PreviewEngine {
	e := &PreviewEngine{builder: b, stops: stops, provider: provider}
	b.OnChange(func() { e.Refresh(context.Background()) })
	return e
}

// Refresh re-evaluates the preview. Called automatically on builder
// changes; safe to call directly.
func (e *PreviewEngine) Refresh(ctx context.Context) {
	// Supersede whatever is in flight before evaluating.
	id := e.seq.Add(1)
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.mu.Unlock()

	snap := e.builder.Snapshot()

	if !snap.IsBuilding || len(snap.Points) < 2 {
		e.clearIfNeeded(snap)
		return
	}

	stops, err := e.stops.ListStops(ctx)
	if err != nil {
		logrus.WithError(err).Warn("preview: could not list stops")
		e.clearIfNeeded(snap)
		return
	}

	ordered, nrErr := ResolvePoints(snap.Points, stops)
	if nrErr != nil {
		e.clearIfNeeded(snap)
		return
	}

	if e.provider == nil {
		logrus.Warn("preview: directions provider not configured")
		e.clearIfNeeded(snap)
		return
	}

	waypoints := waypointsFor(ordered)
	profile := directions.ProfileForMode(snap.TransportMode)

	// Detach from the caller so HTTP request scopes don't cancel the
	// computation; superseding refreshes cancel it instead.
	reqCtx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	go func() {
		defer cancel()
		result, err := e.provider.Route(reqCtx, waypoints, profile, snapRadiusMeters)

		// Drop stale or cancelled responses: only the most recent
		// request may write back.
		if id != e.seq.Load() || reqCtx.Err() != nil {
			return
		}

		if err != nil {
			logrus.WithError(err).Debug("preview: path computation failed")
			e.clearIfNeeded(e.builder.Snapshot())
			return
		}

		e.builder.SetRouteGeometry(result.Geometry)
		e.builder.SetRouteMetrics(result.DistanceM, result.DurationSec)
	}()
}

// clearIfNeeded wipes the preview line and metrics, but only when
// something is actually set, to avoid redundant writes.
func (e *PreviewEngine) clearIfNeeded(snap State) {
	if snap.Geometry == nil && snap.Distance == 0 && snap.ETA == 0 {
		return
	}
	e.builder.SetRouteGeometry(nil)
	e.builder.SetRouteMetrics(0, 0)
}

func waypointsFor(stops []models.Stop) []directions.Waypoint {
	out := make([]directions.Waypoint, 0, len(stops))
	for _, s := range stops {
		out = append(out, directions.Waypoint{ID: s.ID, Lat: s.Lat, Lng: s.Lng})
	}
	return out
}
