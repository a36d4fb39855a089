package builder

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/twpayne/go-geom"

	"commutewise/internal/models"
)

// Field names a scalar builder field addressable through SetField.
type Field string

const (
	FieldRouteName      Field = "routeName"
	FieldDistance       Field = "distance"
	FieldETA            Field = "eta"
	FieldFare           Field = "fare"
	FieldDiscountedFare Field = "discountedFare"
	FieldIsFree         Field = "isFree"
	FieldIsStrict       Field = "isStrict"
	FieldTransportMode  Field = "transportMode"
)

// DefaultTransportMode seeds a fresh build session.
const DefaultTransportMode = "jeepney"

// State is the full in-progress route definition.
type State struct {
	IsBuilding bool   `json:"is_building"`
	RouteName  string `json:"route_name"`

	// Metrics written back from the directions provider:
	// Distance in meters, ETA in seconds.
	Distance float64 `json:"distance"`
	ETA      float64 `json:"eta"`

	Fare float64 `json:"fare"`

	// DiscountedFare is 80% of Fare while DiscountAuto holds; a manual
	// edit clears DiscountAuto, an empty edit restores it.
	DiscountedFare float64 `json:"discounted_fare"`
	DiscountAuto   bool    `json:"discount_auto"`

	IsFree        bool   `json:"is_free"`
	IsStrict      bool   `json:"is_strict"`
	TransportMode string `json:"transport_mode"`

	// Ordered origin -> waypoints -> destination.
	Points []Point `json:"points"`

	// Last confirmed or previewed path line. Retained on cancel so the
	// map keeps showing the saved route.
	Geometry *geom.LineString `json:"-"`

	// Map-selection sub-state: the next map click resolves the point at
	// ActivePointIndex. ActivePointIndex is -1 when inactive.
	SelectingOnMap   bool `json:"selecting_on_map"`
	ActivePointIndex int  `json:"active_point_index"`
}

// Builder owns the in-progress route state. All mutation goes through
// its methods; views read via Snapshot. A change hook fires whenever the
// preview dependency set (building flag, points, transport mode) moves.
type Builder struct {
	mu       sync.Mutex
	state    State
	onChange func()
}

func New() *Builder {
	return &Builder{state: freshState(false)}
}

func freshState(building bool) State {
	return State{
		IsBuilding:       building,
		TransportMode:    DefaultTransportMode,
		DiscountAuto:     true,
		Points:           initialPoints(),
		ActivePointIndex: -1,
	}
}

// OnChange registers the hook invoked after every change to the preview
// dependency set. Only one subscriber is supported.
func (b *Builder) OnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Snapshot returns a copy of the current state. The points slice is
// copied; the geometry pointer is shared and treated as immutable.
func (b *Builder) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := b.state
	snap.Points = make([]Point, len(b.state.Points))
	copy(snap.Points, b.state.Points)
	return snap
}

// StartBuilding resets every field to defaults and creates the
// origin+destination skeleton.
func (b *Builder) StartBuilding() {
	b.mu.Lock()
	b.state = freshState(true)
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// CancelBuilding exits build mode and clears the map-selection
// sub-state. Geometry, metrics and points are retained so the last
// confirmed route line stays visible.
func (b *Builder) CancelBuilding() {
	b.mu.Lock()
	b.state.IsBuilding = false
	b.state.SelectingOnMap = false
	b.state.ActivePointIndex = -1
	b.mu.Unlock()
}

// SetField updates one scalar field. Fare, discounted fare and the free
// flag carry cross-field invariants; everything else is assignment.
func (b *Builder) SetField(field Field, value any) {
	b.mu.Lock()
	notify := false

	switch field {
	case FieldFare:
		n, ok := parseNumber(value)
		safe := 0.0
		if ok && n > 0 {
			safe = n
		}
		b.state.Fare = safe
		if b.state.IsFree {
			b.state.DiscountedFare = 0
		} else if b.state.DiscountAuto {
			b.state.DiscountedFare = discountedFrom(safe)
		}

	case FieldDiscountedFare:
		if isEmptyInput(value) {
			// empty input returns to auto mode (80% of current fare)
			if b.state.IsFree {
				b.state.DiscountedFare = 0
			} else {
				b.state.DiscountedFare = discountedFrom(b.state.Fare)
			}
			b.state.DiscountAuto = true
			break
		}
		n, ok := parseNumber(value)
		if !ok || n < 0 {
			break // reject invalid input, leave state unchanged
		}
		b.state.DiscountedFare = n
		b.state.DiscountAuto = false

	case FieldIsFree:
		free, ok := parseBool(value)
		if !ok {
			break
		}
		if free {
			b.state.IsFree = true
			b.state.Fare = 0
			b.state.DiscountedFare = 0
			b.state.DiscountAuto = true
		} else {
			// unchecking keeps the previous fare values
			b.state.IsFree = false
		}

	case FieldIsStrict:
		if v, ok := parseBool(value); ok {
			b.state.IsStrict = v
		}

	case FieldRouteName:
		if s, ok := value.(string); ok {
			b.state.RouteName = s
		}

	case FieldTransportMode:
		if s, ok := value.(string); ok && s != b.state.TransportMode {
			b.state.TransportMode = s
			notify = true
		}

	case FieldDistance:
		if n, ok := parseNumber(value); ok {
			b.state.Distance = n
		}

	case FieldETA:
		if n, ok := parseNumber(value); ok {
			b.state.ETA = n
		}
	}

	fn := b.onChange
	b.mu.Unlock()
	if notify && fn != nil {
		fn()
	}
}

// AddWaypoint inserts a new unresolved point just before the
// destination. No-op when there is no valid insertion slot.
func (b *Builder) AddWaypoint() {
	b.mu.Lock()
	if len(b.state.Points) < 2 {
		b.mu.Unlock()
		return
	}
	insertAt := len(b.state.Points) - 1
	points := make([]Point, 0, len(b.state.Points)+1)
	points = append(points, b.state.Points[:insertAt]...)
	points = append(points, newWaypoint())
	points = append(points, b.state.Points[insertAt:]...)
	b.state.Points = normalizePoints(points)
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// RemoveWaypoint removes the point at index only when its current role
// is waypoint; origin and destination are never removable.
func (b *Builder) RemoveWaypoint(index int) {
	b.mu.Lock()
	if index < 0 || index >= len(b.state.Points) || b.state.Points[index].Role != RoleWaypoint {
		b.mu.Unlock()
		return
	}
	b.state.Points = normalizePoints(append(b.state.Points[:index], b.state.Points[index+1:]...))
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// UpdatePoint attaches a resolved stop onto the point at index. A stop
// with ID 0 clears the slot. Out-of-range index is a no-op.
func (b *Builder) UpdatePoint(index int, stop models.Stop) {
	b.mu.Lock()
	if index < 0 || index >= len(b.state.Points) {
		b.mu.Unlock()
		return
	}
	b.state.Points[index].StopID = stop.ID
	b.state.Points[index].Name = stop.Name
	b.state.Points = normalizePoints(b.state.Points)
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// SwapPoints moves the point at fromIndex to toIndex. Bounds-checked;
// roles are recomputed after the move.
func (b *Builder) SwapPoints(fromIndex, toIndex int) {
	b.mu.Lock()
	n := len(b.state.Points)
	if fromIndex < 0 || toIndex < 0 || fromIndex >= n || toIndex >= n || fromIndex == toIndex {
		b.mu.Unlock()
		return
	}
	points := b.state.Points
	moved := points[fromIndex]
	points = append(points[:fromIndex], points[fromIndex+1:]...)
	rest := make([]Point, 0, n)
	rest = append(rest, points[:toIndex]...)
	rest = append(rest, moved)
	rest = append(rest, points[toIndex:]...)
	b.state.Points = normalizePoints(rest)
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// StartMapSelection arms the map-selection sub-state: the next
// confirmed click resolves the point at index.
func (b *Builder) StartMapSelection(index int) {
	b.mu.Lock()
	b.state.SelectingOnMap = true
	b.state.ActivePointIndex = index
	b.mu.Unlock()
}

// ConfirmMapSelection resolves the remembered point to the clicked
// stop. No-op when no selection is active.
func (b *Builder) ConfirmMapSelection(stop models.Stop) {
	b.mu.Lock()
	idx := b.state.ActivePointIndex
	if idx < 0 || idx >= len(b.state.Points) {
		b.mu.Unlock()
		return
	}
	b.state.Points[idx].StopID = stop.ID
	b.state.Points[idx].Name = stop.Name
	b.state.Points = normalizePoints(b.state.Points)
	b.state.SelectingOnMap = false
	b.state.ActivePointIndex = -1
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (b *Builder) CancelMapSelection() {
	b.mu.Lock()
	b.state.SelectingOnMap = false
	b.state.ActivePointIndex = -1
	b.mu.Unlock()
}

// SetRouteGeometry stores an externally computed path line. Used by the
// preview engine and the save pipeline.
func (b *Builder) SetRouteGeometry(g *geom.LineString) {
	b.mu.Lock()
	b.state.Geometry = g
	b.mu.Unlock()
}

// SetRouteMetrics stores externally computed distance (meters) and
// duration (seconds).
func (b *Builder) SetRouteMetrics(distanceM, durationSec float64) {
	b.mu.Lock()
	b.state.Distance = distanceM
	b.state.ETA = durationSec
	b.mu.Unlock()
}

// discountedFrom computes the auto discounted fare: 20% off, rounded to
// two decimals.
func discountedFrom(fare float64) float64 {
	if math.IsNaN(fare) || math.IsInf(fare, 0) || fare <= 0 {
		return 0
	}
	return math.Round(fare*0.8*100) / 100
}

func parseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return parseNumber(float64(n))
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parseNumber(f)
	}
	return 0, false
}

func parseBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	return false, false
}

func isEmptyInput(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
