package geo

import "errors"

// ErrNotLineString is returned when a decoded geometry is not a LineString.
var ErrNotLineString = errors.New("geometry is not a LineString")
