package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"commutewise/internal/directions"
	"commutewise/internal/geo"
	"commutewise/internal/models"
	"commutewise/internal/store"
)

// ErrSaveInProgress rejects a save while another is still in flight.
var ErrSaveInProgress = errors.New("a save is already in progress")

// ErrProviderNotConfigured means the directions credential is missing;
// an operator, not the user, has to fix this.
var ErrProviderNotConfigured = errors.New("directions provider is not configured")

// PartialSaveError reports that the route row was written but its stop
// attachments were not. There is no automatic rollback; the caller must
// surface this so the operator can retry or clean up.
type PartialSaveError struct {
	RouteID uint
	Err     error
}

func (e *PartialSaveError) Error() string {
	return fmt.Sprintf("route %d saved but stop attachments failed: %v", e.RouteID, e.Err)
}

func (e *PartialSaveError) Unwrap() error { return e.Err }

// Saver runs the commit pipeline for the route under construction.
type Saver struct {
	builder  *Builder
	stops    StopLister
	provider directions.Provider
	routes   store.RouteStore

	saving atomic.Bool
}

func NewSaver(b *Builder, stops StopLister, provider directions.Provider, routes store.RouteStore) *Saver {
	return &Saver{builder: b, stops: stops, provider: provider, routes: routes}
}

// Saving reports whether a save is currently in flight.
func (s *Saver) Saving() bool { return s.saving.Load() }

// Save validates, recomputes the final path, persists the route and its
// ordered stop attachments, and exits build mode. Validation failures
// come back as a ValidationError carrying every violation at once.
func (s *Saver) Save(ctx context.Context) (*models.Route, error) {
	if !s.saving.CompareAndSwap(false, true) {
		return nil, ErrSaveInProgress
	}
	defer s.saving.Store(false)

	snap := s.builder.Snapshot()

	stops, err := s.stops.ListStops(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stops: %w", err)
	}

	if errs := ValidateDraft(snap, stops); len(errs) > 0 {
		return nil, errs
	}

	if s.provider == nil {
		return nil, ErrProviderNotConfigured
	}

	ordered, nrErr := ResolvePoints(snap.Points, stops)
	if nrErr != nil {
		// validation already vouched for resolvability; a stop deleted
		// in between lands here
		return nil, ValidationError{"every route point must be set to an existing stop"}
	}

	result, err := s.provider.Route(ctx, waypointsFor(ordered), directions.ProfileForMode(snap.TransportMode), snapRadiusMeters)
	if err != nil {
		if errors.Is(err, directions.ErrNoRoute) {
			return nil, directions.ErrNoRoute
		}
		return nil, fmt.Errorf("compute route path: %w", err)
	}

	// Write the confirmed line back immediately so the map shows it
	// even if persistence fails below.
	s.builder.SetRouteGeometry(result.Geometry)
	s.builder.SetRouteMetrics(result.DistanceM, result.DurationSec)

	effectiveFare := snap.Fare
	effectiveDiscounted := snap.DiscountedFare
	if snap.IsFree {
		effectiveFare = 0
		effectiveDiscounted = 0
	}

	wkbGeom, err := geo.LineStringToWKB(result.Geometry)
	if err != nil {
		return nil, fmt.Errorf("encode route geometry: %w", err)
	}

	route := models.Route{
		Name:                 strings.TrimSpace(snap.RouteName),
		VehicleType:          strings.ToLower(strings.TrimSpace(snap.TransportMode)),
		OriginID:             ordered[0].ID,
		DestinationID:        ordered[len(ordered)-1].ID,
		Geometry:             wkbGeom,
		DistanceM:            result.DistanceM,
		DurationSec:          result.DurationSec,
		FareAmount:           effectiveFare,
		DiscountedFareAmount: effectiveDiscounted,
		IsStrict:             snap.IsStrict,
	}

	if err := s.routes.CreateRoute(ctx, &route); err != nil {
		return nil, fmt.Errorf("save route: %w", err)
	}

	attachments := make([]models.RouteStop, 0, len(ordered))
	for i, stop := range ordered {
		attachments = append(attachments, models.RouteStop{
			RouteID:              route.ID,
			StopID:               stop.ID,
			Sequence:             i,
			FareAmount:           effectiveFare,
			DiscountedFareAmount: effectiveDiscounted,
		})
	}
	if err := s.routes.CreateRouteStops(ctx, attachments); err != nil {
		// No rollback of the route row; surface the inconsistency.
		logrus.WithError(err).WithField("route_id", route.ID).
			Error("save: route persisted but attachments failed")
		return &route, &PartialSaveError{RouteID: route.ID, Err: err}
	}

	// Exit build mode; geometry stays on the map.
	s.builder.CancelBuilding()
	return &route, nil
}
