package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"commutewise/internal/models"
)

// Gorm implements StopStore and RouteStore on a gorm/postgres handle.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) ListStops(ctx context.Context) ([]models.Stop, error) {
	var stops []models.Stop
	if err := g.db.WithContext(ctx).Find(&stops).Error; err != nil {
		return nil, err
	}
	return stops, nil
}

func (g *Gorm) GetStop(ctx context.Context, id uint) (models.Stop, error) {
	var stop models.Stop
	if err := g.db.WithContext(ctx).First(&stop, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Stop{}, ErrNotFound
		}
		return models.Stop{}, err
	}
	return stop, nil
}

func (g *Gorm) UpsertStop(ctx context.Context, stop *models.Stop) error {
	return g.db.WithContext(ctx).Save(stop).Error
}

func (g *Gorm) DeleteStop(ctx context.Context, id uint) error {
	res := g.db.WithContext(ctx).Delete(&models.Stop{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *Gorm) CreateRoute(ctx context.Context, route *models.Route) error {
	return g.db.WithContext(ctx).Create(route).Error
}

func (g *Gorm) UpdateRouteMeta(ctx context.Context, id uint, patch RouteMetaPatch) (models.Route, error) {
	var route models.Route
	if err := g.db.WithContext(ctx).First(&route, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Route{}, ErrNotFound
		}
		return models.Route{}, err
	}

	route.Name = strings.TrimSpace(patch.Name)
	route.VehicleType = strings.ToLower(strings.TrimSpace(patch.VehicleType))
	route.FareAmount = patch.FareAmount
	route.DiscountedFareAmount = patch.DiscountedFareAmount
	route.IsStrict = patch.IsStrict

	if err := g.db.WithContext(ctx).Save(&route).Error; err != nil {
		return models.Route{}, err
	}
	return route, nil
}

func (g *Gorm) ListRoutes(ctx context.Context) ([]models.Route, error) {
	var routes []models.Route
	if err := g.db.WithContext(ctx).Order("created_at DESC").Find(&routes).Error; err != nil {
		return nil, err
	}
	return routes, nil
}

func (g *Gorm) DeleteRoute(ctx context.Context, id uint) error {
	tx := g.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Where("route_id = ?", id).Delete(&models.RouteStop{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	res := tx.Delete(&models.Route{}, id)
	if res.Error != nil {
		tx.Rollback()
		return res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	return tx.Commit().Error
}

func (g *Gorm) CreateRouteStops(ctx context.Context, stops []models.RouteStop) error {
	if len(stops) == 0 {
		return nil
	}
	return g.db.WithContext(ctx).Create(&stops).Error
}

func (g *Gorm) ListRouteStops(ctx context.Context) ([]models.RouteStop, error) {
	var stops []models.RouteStop
	if err := g.db.WithContext(ctx).Order("route_id, sequence").Find(&stops).Error; err != nil {
		return nil, err
	}
	return stops, nil
}
