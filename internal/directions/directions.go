package directions

import (
	"context"
	"errors"

	"github.com/twpayne/go-geom"
)

// Profile selects the road-network profile used for path computation.
type Profile string

const (
	ProfileDriving Profile = "driving"
	ProfileWalking Profile = "walking"
)

// ProfileForMode maps a transport mode label to a directions profile.
// All motorized modes (jeepney, e-jeepney, bus, tricycle) ride the
// driving profile; walking is the only exception.
func ProfileForMode(mode string) Profile {
	if mode == "walking" {
		return ProfileWalking
	}
	return ProfileDriving
}

// Waypoint is one ordered input point for a path computation.
type Waypoint struct {
	ID  uint
	Lat float64
	Lng float64
}

// Result is the computed path plus its aggregate metrics.
type Result struct {
	Geometry    *geom.LineString
	DistanceM   float64 // meters
	DurationSec float64 // seconds
}

// ErrNoRoute means the provider could not connect the waypoints.
var ErrNoRoute = errors.New("no route found between waypoints")

// Provider computes a real-world path through an ordered waypoint list.
// snapRadiusM is how far (meters) each waypoint may be shifted onto the
// road network.
type Provider interface {
	Route(ctx context.Context, waypoints []Waypoint, profile Profile, snapRadiusM float64) (*Result, error)
}
