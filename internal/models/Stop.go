package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Stop kinds. A terminal is the canonical grouping point for routes
// that depart from it; a plain stop is any other boarding point.
const (
	StopKindTerminal = "terminal"
	StopKindStop     = "stop"
)

// Stop represents a point of interest on the network map: either a
// terminal or an ordinary stop. VehicleTypes lists the vehicle kinds
// serving it (jeepney, bus, tricycle, ...).
type Stop struct {
	gorm.Model

	Name string  `json:"name" binding:"required"`
	Kind string  `json:"kind" gorm:"default:stop"` // "terminal" | "stop"
	Lat  float64 `json:"lat" binding:"required"`
	Lng  float64 `json:"lng" binding:"required"`

	VehicleTypes pq.StringArray `json:"vehicle_types" gorm:"type:text[]"`

	// Administrative area label filled in by reverse geocoding
	Barangay string `json:"barangay"`
}

// IsTerminal reports whether the stop acts as a route origin grouping point.
func (s Stop) IsTerminal() bool {
	return s.Kind == StopKindTerminal
}
