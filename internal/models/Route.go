package models

import (
	"gorm.io/gorm"
)

// Route is a persisted route definition drawn over the road network.
// Origin/destination reference stops; the full ordered stop list lives
// in RouteStop rows.
type Route struct {
	gorm.Model

	Name        string `json:"name" binding:"required"`
	VehicleType string `json:"vehicle_type"` // lower-cased on save

	OriginID      uint `json:"origin_id"`
	DestinationID uint `json:"destination_id"`

	// Path geometry stored as WKB (LINESTRING, SRID 4326).
	// API input/output uses GeoJSON; see controllers.
	Geometry []byte `json:"-" gorm:"type:bytea"`

	DistanceM   float64 `json:"distance_m"`   // meters
	DurationSec float64 `json:"duration_sec"` // seconds

	FareAmount           float64 `json:"fare_amount"`
	DiscountedFareAmount float64 `json:"discounted_fare_amount"`
	IsStrict             bool    `json:"is_strict"`

	// Associations
	Stops []RouteStop `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"stops,omitempty"`
}
