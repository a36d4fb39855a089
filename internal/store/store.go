package store

import (
	"context"
	"errors"

	"commutewise/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// RouteMetaPatch carries the only route fields editable after creation.
// Geometry, origin, destination and stop attachments are immutable
// through this path.
type RouteMetaPatch struct {
	Name                 string  `json:"name"`
	VehicleType          string  `json:"vehicle_type"`
	FareAmount           float64 `json:"fare_amount"`
	DiscountedFareAmount float64 `json:"discounted_fare_amount"`
	IsStrict             bool    `json:"is_strict"`
}

// StopStore is the persistent stop (marker) record store.
type StopStore interface {
	ListStops(ctx context.Context) ([]models.Stop, error)
	GetStop(ctx context.Context, id uint) (models.Stop, error)
	UpsertStop(ctx context.Context, stop *models.Stop) error
	DeleteStop(ctx context.Context, id uint) error
}

// RouteStore persists routes and their ordered stop attachments.
type RouteStore interface {
	CreateRoute(ctx context.Context, route *models.Route) error
	UpdateRouteMeta(ctx context.Context, id uint, patch RouteMetaPatch) (models.Route, error)
	// ListRoutes returns all routes, newest first.
	ListRoutes(ctx context.Context) ([]models.Route, error)
	// DeleteRoute removes the route and cascades its attachments.
	DeleteRoute(ctx context.Context, id uint) error

	CreateRouteStops(ctx context.Context, stops []models.RouteStop) error
	ListRouteStops(ctx context.Context) ([]models.RouteStop, error)
}
