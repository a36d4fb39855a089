package models

import (
	"gorm.io/gorm"
)

// RouteStop is the ordered join between a route and a stop.
// Sequence 0 is the origin; values are contiguous and strictly
// increasing within a route. Per-stop fares are currently seeded from
// the route's aggregate fare.
type RouteStop struct {
	gorm.Model

	RouteID  uint `json:"route_id" gorm:"index"`
	StopID   uint `json:"stop_id" gorm:"index"`
	Sequence int  `json:"sequence"`

	FareAmount           float64 `json:"fare_amount"`
	DiscountedFareAmount float64 `json:"discounted_fare_amount"`
}
