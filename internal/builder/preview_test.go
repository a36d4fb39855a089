package builder

import (
	"context"
	"testing"
	"time"

	"commutewise/internal/directions"
	"commutewise/internal/models"
)

func previewFixture(t *testing.T) (*Builder, *stubStops, *blockingProvider) {
	t.Helper()
	stops := &stubStops{stops: []models.Stop{
		terminal(1, "North Terminal", 14.65, 121.02),
		terminal(2, "South Terminal", 14.55, 121.00),
		terminal(3, "East Terminal", 14.60, 121.08),
	}}
	b := New()
	provider := &blockingProvider{}
	NewPreviewEngine(b, stops, provider)
	return b, stops, provider
}

func TestPreviewIssuesOneRequestWhenResolvable(t *testing.T) {
	b, stops, provider := previewFixture(t)

	b.StartBuilding()
	b.UpdatePoint(0, stops.stops[0])
	if provider.callCount() != 0 {
		t.Fatal("no request should go out while a point is unresolved")
	}

	b.UpdatePoint(1, stops.stops[1])
	waitFor(t, "path request", func() bool { return provider.callCount() == 1 })

	// settle: still exactly one request for one dependency change
	time.Sleep(30 * time.Millisecond)
	if got := provider.callCount(); got != 1 {
		t.Fatalf("requests = %d, want 1", got)
	}

	call := provider.call(0)
	if len(call.waypoints) != 2 || call.waypoints[0].ID != 1 || call.waypoints[1].ID != 2 {
		t.Fatalf("waypoints = %+v", call.waypoints)
	}
	if call.radius != 50 {
		t.Errorf("snap radius = %v, want 50", call.radius)
	}
	if call.profile != directions.ProfileDriving {
		t.Errorf("profile = %q, want driving", call.profile)
	}

	call.release <- releaseWith{result: &directions.Result{
		Geometry:    lineString(t, 121.02, 14.65, 121.00, 14.55),
		DistanceM:   3200,
		DurationSec: 540,
	}}

	waitFor(t, "preview write-back", func() bool { return b.Snapshot().Geometry != nil })
	snap := b.Snapshot()
	if snap.Distance <= 0 || snap.ETA <= 0 {
		t.Fatalf("metrics = %v/%v, want positive", snap.Distance, snap.ETA)
	}
}

func TestPreviewLastRequestWins(t *testing.T) {
	b, stops, provider := previewFixture(t)

	b.StartBuilding()
	b.UpdatePoint(0, stops.stops[0])
	b.UpdatePoint(1, stops.stops[1]) // request A
	waitFor(t, "request A", func() bool { return provider.callCount() == 1 })

	b.UpdatePoint(1, stops.stops[2]) // request B supersedes A
	waitFor(t, "request B", func() bool { return provider.callCount() == 2 })

	// B resolves first
	provider.call(1).release <- releaseWith{result: &directions.Result{
		Geometry:    lineString(t, 121.02, 14.65, 121.08, 14.60),
		DistanceM:   2000,
		DurationSec: 400,
	}}
	waitFor(t, "B write-back", func() bool { return b.Snapshot().Distance == 2000 })

	// A resolves late; its result must be discarded
	provider.call(0).release <- releaseWith{result: &directions.Result{
		Geometry:    lineString(t, 121.02, 14.65, 121.00, 14.55),
		DistanceM:   1000,
		DurationSec: 100,
	}}
	time.Sleep(50 * time.Millisecond)

	snap := b.Snapshot()
	if snap.Distance != 2000 || snap.ETA != 400 {
		t.Fatalf("metrics = %v/%v, want B's 2000/400", snap.Distance, snap.ETA)
	}
}

func TestPreviewClearsWhenPointUnset(t *testing.T) {
	b, stops, provider := previewFixture(t)

	b.StartBuilding()
	b.UpdatePoint(0, stops.stops[0])
	b.UpdatePoint(1, stops.stops[1])
	waitFor(t, "path request", func() bool { return provider.callCount() == 1 })
	provider.call(0).release <- releaseWith{result: &directions.Result{
		Geometry:    lineString(t, 121.02, 14.65, 121.00, 14.55),
		DistanceM:   3200,
		DurationSec: 540,
	}}
	waitFor(t, "preview write-back", func() bool { return b.Snapshot().Geometry != nil })

	// clearing the destination makes the list unresolvable
	b.UpdatePoint(1, models.Stop{})
	waitFor(t, "preview clear", func() bool {
		snap := b.Snapshot()
		return snap.Geometry == nil && snap.Distance == 0 && snap.ETA == 0
	})
}

func TestPreviewClearsProviderFailure(t *testing.T) {
	b, stops, provider := previewFixture(t)

	b.StartBuilding()
	b.UpdatePoint(0, stops.stops[0])
	b.UpdatePoint(1, stops.stops[1])
	waitFor(t, "path request", func() bool { return provider.callCount() == 1 })

	provider.call(0).release <- releaseWith{err: directions.ErrNoRoute}
	time.Sleep(50 * time.Millisecond)

	snap := b.Snapshot()
	if snap.Geometry != nil || snap.Distance != 0 || snap.ETA != 0 {
		t.Fatalf("preview should stay empty on provider failure: %+v", snap)
	}
}

func TestRefreshOutsideBuildModeClearsLeftovers(t *testing.T) {
	stops := &stubStops{}
	b := New()
	engine := NewPreviewEngine(b, stops, &blockingProvider{})

	b.SetRouteGeometry(lineString(t, 121.0, 14.0, 121.1, 14.1))
	b.SetRouteMetrics(900, 120)

	engine.Refresh(context.Background())
	snap := b.Snapshot()
	if snap.Geometry != nil || snap.Distance != 0 || snap.ETA != 0 {
		t.Fatalf("leftover preview not cleared: %+v", snap)
	}
}

func TestPreviewWithoutProviderStaysEmpty(t *testing.T) {
	stops := &stubStops{stops: []models.Stop{
		terminal(1, "A", 14.0, 121.0),
		terminal(2, "B", 14.1, 121.1),
	}}
	b := New()
	NewPreviewEngine(b, stops, nil)

	b.StartBuilding()
	b.UpdatePoint(0, stops.stops[0])
	b.UpdatePoint(1, stops.stops[1])
	time.Sleep(30 * time.Millisecond)

	if snap := b.Snapshot(); snap.Geometry != nil {
		t.Fatal("no provider means no preview line")
	}
}
