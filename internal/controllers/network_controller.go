package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"commutewise/internal/geo"
	"commutewise/internal/models"
	"commutewise/internal/network"
	"commutewise/internal/store"
)

// NetworkController serves the persisted route network: list/map data,
// hover/focus selection, the metadata edit overlay, and route deletion.
type NetworkController struct {
	cache  *network.Cache
	routes store.RouteStore
	stops  store.StopStore
}

func NewNetworkController(cache *network.Cache, routes store.RouteStore, stops store.StopStore) *NetworkController {
	return &NetworkController{cache: cache, routes: routes, stops: stops}
}

// RouteResponse mirrors models.Route with geometry as GeoJSON.
type RouteResponse struct {
	ID                   uint           `json:"ID"`
	CreatedAt            time.Time      `json:"CreatedAt"`
	UpdatedAt            time.Time      `json:"UpdatedAt"`
	DeletedAt            gorm.DeletedAt `json:"DeletedAt,omitempty"`
	Name                 string         `json:"name"`
	VehicleType          string         `json:"vehicle_type"`
	OriginID             uint           `json:"origin_id"`
	DestinationID        uint           `json:"destination_id"`
	Geometry             string         `json:"geometry"`
	DistanceM            float64        `json:"distance_m"`
	DurationSec          float64        `json:"duration_sec"`
	FareAmount           float64        `json:"fare_amount"`
	DiscountedFareAmount float64        `json:"discounted_fare_amount"`
	IsStrict             bool           `json:"is_strict"`
}

func toRouteResponse(route models.Route) RouteResponse {
	jsonGeom, err := geo.WKBToGeoJSON(route.Geometry)
	if err != nil {
		logrus.WithError(err).WithField("route_id", route.ID).Warn("network: bad stored geometry")
	}
	return RouteResponse{
		ID:                   route.ID,
		CreatedAt:            route.CreatedAt,
		UpdatedAt:            route.UpdatedAt,
		DeletedAt:            route.DeletedAt,
		Name:                 route.Name,
		VehicleType:          route.VehicleType,
		OriginID:             route.OriginID,
		DestinationID:        route.DestinationID,
		Geometry:             jsonGeom,
		DistanceM:            route.DistanceM,
		DurationSec:          route.DurationSec,
		FareAmount:           route.FareAmount,
		DiscountedFareAmount: route.DiscountedFareAmount,
		IsStrict:             route.IsStrict,
	}
}

// Reload refreshes the cache from the store and returns the new view.
func (n *NetworkController) Reload(c *gin.Context) {
	if err := n.cache.Reload(c.Request.Context()); err != nil {
		logrus.WithError(err).Error("Reload: route fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload route network: " + err.Error()})
		return
	}
	n.GetNetwork(c)
}

// GetNetwork returns the cached routes, attachments, terminal grouping
// and current selection state.
func (n *NetworkController) GetNetwork(c *gin.Context) {
	stops, err := n.stops.ListStops(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("GetNetwork: stop query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	routes := n.cache.Routes()
	routeResponses := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		routeResponses = append(routeResponses, toRouteResponse(r))
	}

	grouping := n.cache.GroupByTerminal(stops)
	groupedIDs := make(map[uint][]uint, len(grouping))
	for terminalID, terminalRoutes := range grouping {
		for _, r := range terminalRoutes {
			groupedIDs[terminalID] = append(groupedIDs[terminalID], r.ID)
		}
	}

	resp := gin.H{
		"routes":           routeResponses,
		"route_stops":      n.cache.RouteStops(),
		"by_terminal":      groupedIDs,
		"hover_route_id":   n.cache.HoverRoute(),
		"focused_terminal": n.cache.FocusedTerminal(),
	}
	if editing := n.cache.EditingRoute(); editing != nil {
		resp["editing_route"] = toRouteResponse(*editing)
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateRouteMeta edits name/mode/fares/strict on a persisted route.
// Geometry, origin/destination and attachments stay immutable here.
func (n *NetworkController) UpdateRouteMeta(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	var patch store.RouteMetaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		logrus.WithError(err).Warn("UpdateRouteMeta: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	route, err := n.routes.UpdateRouteMeta(c.Request.Context(), uint(id), patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		} else {
			logrus.WithError(err).Error("UpdateRouteMeta: save failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed: " + err.Error()})
		}
		return
	}

	n.cache.ClearEditingRoute()
	if err := n.cache.Reload(c.Request.Context()); err != nil {
		logrus.WithError(err).Warn("UpdateRouteMeta: cache reload failed")
	}

	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}

// DeleteRoute removes a route; its attachments cascade.
func (n *NetworkController) DeleteRoute(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	if err := n.routes.DeleteRoute(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		} else {
			logrus.WithError(err).Error("DeleteRoute: delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete route: " + err.Error()})
		}
		return
	}

	if err := n.cache.Reload(c.Request.Context()); err != nil {
		logrus.WithError(err).Warn("DeleteRoute: cache reload failed")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Route deleted successfully"})
}

// SetHover records which route the UI is highlighting; 0 clears it.
func (n *NetworkController) SetHover(c *gin.Context) {
	var input struct {
		RouteID uint `json:"route_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n.cache.SetHoverRoute(input.RouteID)
	c.JSON(http.StatusOK, gin.H{"hover_route_id": input.RouteID})
}

// SetFocus records the focused terminal; 0 clears it.
func (n *NetworkController) SetFocus(c *gin.Context) {
	var input struct {
		TerminalID uint `json:"terminal_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n.cache.SetFocusedTerminal(input.TerminalID)
	c.JSON(http.StatusOK, gin.H{"focused_terminal": input.TerminalID})
}

// StartEdit opens the metadata edit overlay for a cached route.
func (n *NetworkController) StartEdit(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	for _, r := range n.cache.Routes() {
		if r.ID == uint(id) {
			n.cache.StartEditRoute(r)
			c.JSON(http.StatusOK, gin.H{"editing_route": toRouteResponse(r)})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
}

// ClearEdit closes the edit overlay.
func (n *NetworkController) ClearEdit(c *gin.Context) {
	n.cache.ClearEditingRoute()
	c.JSON(http.StatusOK, gin.H{"message": "Editing cleared"})
}
