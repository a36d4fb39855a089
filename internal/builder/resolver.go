package builder

import (
	"fmt"
	"math"
	"strings"

	"commutewise/internal/models"
)

// KnownTransportModes are the vehicle kinds the console recognizes,
// keyed lower-case.
var KnownTransportModes = map[string]bool{
	"jeepney":   true,
	"e-jeepney": true,
	"bus":       true,
	"tricycle":  true,
	"walking":   true,
}

// NotReadyError reports why the point list cannot be resolved yet.
// Unresolved holds the indices of points with no stop reference or with
// a reference to a stop that no longer exists.
type NotReadyError struct {
	Unresolved []int
	TooFew     bool
}

func (e *NotReadyError) Error() string {
	if e.TooFew {
		return "route needs at least an origin and a destination"
	}
	return fmt.Sprintf("route points not resolved: %v", e.Unresolved)
}

// ResolvePoints maps the ordered point list onto concrete stop records.
// Resolution is all-or-nothing: any unresolved or dangling point fails
// the whole list.
func ResolvePoints(points []Point, stops []models.Stop) ([]models.Stop, *NotReadyError) {
	if len(points) < 2 {
		return nil, &NotReadyError{TooFew: true}
	}

	byID := make(map[uint]models.Stop, len(stops))
	for _, s := range stops {
		byID[s.ID] = s
	}

	ordered := make([]models.Stop, 0, len(points))
	var unresolved []int
	for i, p := range points {
		if p.StopID == 0 {
			unresolved = append(unresolved, i)
			continue
		}
		stop, ok := byID[p.StopID]
		if !ok {
			// referenced stop was deleted out from under the builder
			unresolved = append(unresolved, i)
			continue
		}
		ordered = append(ordered, stop)
	}

	if len(unresolved) > 0 {
		return nil, &NotReadyError{Unresolved: unresolved}
	}
	return ordered, nil
}

// ValidationError collects every violation found in a draft so the user
// sees them all at once.
type ValidationError []string

func (e ValidationError) Error() string {
	return strings.Join(e, "; ")
}

// ValidateDraft checks a builder state against the full stop collection
// before a commit is attempted. All violations are collected; nothing
// short-circuits.
func ValidateDraft(s State, stops []models.Stop) ValidationError {
	var errs ValidationError

	if strings.TrimSpace(s.RouteName) == "" {
		errs = append(errs, "route name is required")
	}

	mode := strings.ToLower(strings.TrimSpace(s.TransportMode))
	if !KnownTransportModes[mode] {
		errs = append(errs, fmt.Sprintf("unrecognized transport mode %q", s.TransportMode))
	}

	if !s.IsFree {
		if math.IsNaN(s.Fare) || math.IsInf(s.Fare, 0) || s.Fare < 0 {
			errs = append(errs, "fare must be a non-negative amount")
		}
	}

	if _, nrErr := ResolvePoints(s.Points, stops); nrErr != nil {
		if nrErr.TooFew {
			errs = append(errs, "route needs at least an origin and a destination")
		} else {
			errs = append(errs, "every route point must be set to an existing stop")
		}
	}

	return errs
}
