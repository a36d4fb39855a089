package builder

import (
	"github.com/google/uuid"
)

// Role of a point within the ordered list. Roles are derived from
// position after every structural mutation, never stored independently.
type Role string

const (
	RoleOrigin      Role = "origin"
	RoleDestination Role = "destination"
	RoleWaypoint    Role = "waypoint"
)

// Point is an editing-time slot in a route-in-progress. StopID is 0
// until the slot is resolved to a real stop; Name mirrors the resolved
// stop's display name.
type Point struct {
	ID     string `json:"id"`
	StopID uint   `json:"stop_id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Order  int    `json:"order"`
}

// normalizePoints reassigns roles and order by position: first item is
// the origin, last is the destination, everything between is a waypoint.
func normalizePoints(points []Point) []Point {
	for i := range points {
		role := RoleWaypoint
		if i == 0 {
			role = RoleOrigin
		} else if i == len(points)-1 {
			role = RoleDestination
		}
		points[i].Role = role
		points[i].Order = i
	}
	return points
}

// initialPoints creates the two-point skeleton for a fresh build:
// unresolved origin and destination.
func initialPoints() []Point {
	return normalizePoints([]Point{
		{ID: "origin"},
		{ID: "dest"},
	})
}

func newWaypoint() Point {
	return Point{ID: uuid.NewString(), Role: RoleWaypoint}
}
