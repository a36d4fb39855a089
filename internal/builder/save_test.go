package builder

import (
	"context"
	"errors"
	"testing"

	"commutewise/internal/directions"
	"commutewise/internal/models"
	"commutewise/internal/store"
)

func seedStops(t *testing.T, mem *store.Memory, names ...string) []models.Stop {
	t.Helper()
	out := make([]models.Stop, 0, len(names))
	for i, name := range names {
		s := models.Stop{
			Name: name,
			Kind: models.StopKindTerminal,
			Lat:  14.5 + float64(i)/100,
			Lng:  121.0 + float64(i)/100,
		}
		if err := mem.UpsertStop(context.Background(), &s); err != nil {
			t.Fatalf("UpsertStop(%s): %v", name, err)
		}
		out = append(out, s)
	}
	return out
}

func draftRoute(b *Builder, stops []models.Stop) {
	b.StartBuilding()
	b.SetField(FieldRouteName, "Bayan Loop")
	b.SetField(FieldFare, 25.0)
	b.UpdatePoint(0, stops[0])
	for i := 1; i < len(stops)-1; i++ {
		b.AddWaypoint()
		b.UpdatePoint(i, stops[i])
	}
	b.UpdatePoint(len(stops)-1, stops[len(stops)-1])
}

func TestSavePersistsRouteAndAttachments(t *testing.T) {
	mem := store.NewMemory()
	stops := seedStops(t, mem, "North Terminal", "Market", "South Terminal")

	b := New()
	draftRoute(b, stops)

	provider := &instantProvider{result: &directions.Result{
		Geometry:    lineString(t, 121.0, 14.5, 121.01, 14.51, 121.02, 14.52),
		DistanceM:   4100,
		DurationSec: 780,
	}}
	saver := NewSaver(b, mem, provider, mem)

	route, err := saver.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if route.ID == 0 {
		t.Fatal("route was not assigned an id")
	}
	if route.Name != "Bayan Loop" || route.VehicleType != "jeepney" {
		t.Fatalf("route meta = %q/%q", route.Name, route.VehicleType)
	}
	if route.OriginID != stops[0].ID || route.DestinationID != stops[2].ID {
		t.Fatalf("endpoints = %d/%d, want %d/%d", route.OriginID, route.DestinationID, stops[0].ID, stops[2].ID)
	}
	if route.FareAmount != 25 || route.DiscountedFareAmount != 20 {
		t.Fatalf("fares = %v/%v, want 25/20", route.FareAmount, route.DiscountedFareAmount)
	}
	if len(route.Geometry) == 0 {
		t.Fatal("route geometry not encoded")
	}

	attachments, err := mem.ListRouteStops(context.Background())
	if err != nil {
		t.Fatalf("ListRouteStops: %v", err)
	}
	if len(attachments) != 3 {
		t.Fatalf("attachments = %d, want 3", len(attachments))
	}
	for i, rs := range attachments {
		if rs.RouteID != route.ID {
			t.Errorf("attachment %d: route id = %d, want %d", i, rs.RouteID, route.ID)
		}
		if rs.StopID != stops[i].ID || rs.Sequence != i {
			t.Errorf("attachment %d: stop=%d seq=%d, want stop=%d seq=%d", i, rs.StopID, rs.Sequence, stops[i].ID, i)
		}
		if rs.FareAmount != 25 || rs.DiscountedFareAmount != 20 {
			t.Errorf("attachment %d fares = %v/%v", i, rs.FareAmount, rs.DiscountedFareAmount)
		}
	}

	// build mode ends; confirmed line stays on the map
	snap := b.Snapshot()
	if snap.IsBuilding {
		t.Fatal("save should exit build mode")
	}
	if snap.Geometry == nil || snap.Distance != 4100 || snap.ETA != 780 {
		t.Fatal("confirmed geometry and metrics must survive the save")
	}
}

func TestSaveFreeRouteZeroesFares(t *testing.T) {
	mem := store.NewMemory()
	stops := seedStops(t, mem, "A", "B")

	b := New()
	draftRoute(b, stops)
	b.SetField(FieldIsFree, true)

	provider := &instantProvider{result: &directions.Result{
		Geometry: lineString(t, 121.0, 14.5, 121.01, 14.51),
	}}
	route, err := NewSaver(b, mem, provider, mem).Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if route.FareAmount != 0 || route.DiscountedFareAmount != 0 {
		t.Fatalf("free route fares = %v/%v, want 0/0", route.FareAmount, route.DiscountedFareAmount)
	}
}

func TestSaveValidationFailurePersistsNothing(t *testing.T) {
	mem := store.NewMemory()
	stops := seedStops(t, mem, "A", "B")

	b := New()
	draftRoute(b, stops)
	b.SetField(FieldRouteName, "   ")

	provider := &instantProvider{result: &directions.Result{Geometry: lineString(t, 0, 0, 1, 1)}}
	_, err := NewSaver(b, mem, provider, mem).Save(context.Background())

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if provider.callCount() != 0 {
		t.Fatal("validation failure must not reach the provider")
	}
	if routes, _ := mem.ListRoutes(context.Background()); len(routes) != 0 {
		t.Fatal("validation failure must not persist a route")
	}
	if !b.Snapshot().IsBuilding {
		t.Fatal("failed save must keep the session open")
	}
}

func TestSaveWithoutProvider(t *testing.T) {
	mem := store.NewMemory()
	stops := seedStops(t, mem, "A", "B")

	b := New()
	draftRoute(b, stops)

	_, err := NewSaver(b, mem, nil, mem).Save(context.Background())
	if !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("err = %v, want ErrProviderNotConfigured", err)
	}
}

func TestSaveNoRoutePassesThrough(t *testing.T) {
	mem := store.NewMemory()
	stops := seedStops(t, mem, "A", "B")

	b := New()
	draftRoute(b, stops)

	provider := &instantProvider{err: directions.ErrNoRoute}
	_, err := NewSaver(b, mem, provider, mem).Save(context.Background())
	if !errors.Is(err, directions.ErrNoRoute) {
		t.Fatalf("err = %v, want ErrNoRoute", err)
	}
	if routes, _ := mem.ListRoutes(context.Background()); len(routes) != 0 {
		t.Fatal("no-route failure must not persist anything")
	}
}

// failingAttachments accepts the route row but refuses its attachments.
type failingAttachments struct {
	*store.Memory
	attachErr error
}

func (f *failingAttachments) CreateRouteStops(ctx context.Context, stops []models.RouteStop) error {
	return f.attachErr
}

func TestSavePartialFailureSurfacesRouteID(t *testing.T) {
	mem := store.NewMemory()
	stops := seedStops(t, mem, "A", "B")

	b := New()
	draftRoute(b, stops)

	provider := &instantProvider{result: &directions.Result{
		Geometry: lineString(t, 121.0, 14.5, 121.01, 14.51),
	}}
	routes := &failingAttachments{Memory: mem, attachErr: errors.New("disk full")}
	route, err := NewSaver(b, mem, provider, routes).Save(context.Background())

	var perr *PartialSaveError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want partial-save error", err)
	}
	if route == nil || perr.RouteID != route.ID {
		t.Fatalf("partial error route id = %d, route = %+v", perr.RouteID, route)
	}
	if persisted, _ := mem.ListRoutes(context.Background()); len(persisted) != 1 {
		t.Fatal("route row should remain persisted after attachment failure")
	}
	if !b.Snapshot().IsBuilding {
		t.Fatal("partial failure must keep the session open")
	}
}

func TestSaveRejectsConcurrentSave(t *testing.T) {
	mem := store.NewMemory()
	stops := seedStops(t, mem, "A", "B")

	b := New()
	draftRoute(b, stops)

	provider := &blockingProvider{}
	saver := NewSaver(b, mem, provider, mem)

	done := make(chan error, 1)
	go func() {
		_, err := saver.Save(context.Background())
		done <- err
	}()
	waitFor(t, "first save to reach the provider", func() bool { return provider.callCount() == 1 })

	if _, err := saver.Save(context.Background()); !errors.Is(err, ErrSaveInProgress) {
		t.Fatalf("err = %v, want ErrSaveInProgress", err)
	}

	provider.call(0).release <- releaseWith{result: &directions.Result{
		Geometry: lineString(t, 121.0, 14.5, 121.01, 14.51),
	}}
	if err := <-done; err != nil {
		t.Fatalf("first save: %v", err)
	}
	if saver.Saving() {
		t.Fatal("saving flag should reset after completion")
	}
}
