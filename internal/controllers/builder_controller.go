package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"commutewise/internal/builder"
	"commutewise/internal/directions"
	"commutewise/internal/geo"
	"commutewise/internal/models"
	"commutewise/internal/store"
)

// BuilderController drives the route builder state machine from the
// console UI. The preview engine reacts to these transitions on its
// own; only Save goes through the commit pipeline explicitly.
type BuilderController struct {
	builder *builder.Builder
	saver   *builder.Saver
	stops   store.StopStore
}

func NewBuilderController(b *builder.Builder, saver *builder.Saver, stops store.StopStore) *BuilderController {
	return &BuilderController{builder: b, saver: saver, stops: stops}
}

// builderStateResponse mirrors builder.State with the geometry rendered
// as GeoJSON for the map widget.
type builderStateResponse struct {
	builder.State
	Geometry string `json:"geometry,omitempty"`
	IsSaving bool   `json:"is_saving"`
}

func (b *BuilderController) stateResponse() (builderStateResponse, error) {
	snap := b.builder.Snapshot()
	gj, err := geo.LineStringToGeoJSON(snap.Geometry)
	if err != nil {
		return builderStateResponse{}, err
	}
	return builderStateResponse{State: snap, Geometry: gj, IsSaving: b.saver.Saving()}, nil
}

func (b *BuilderController) respondState(c *gin.Context) {
	resp, err := b.stateResponse()
	if err != nil {
		logrus.WithError(err).Error("builder: could not encode geometry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"builder": resp})
}

// GetState returns the current builder snapshot.
func (b *BuilderController) GetState(c *gin.Context) {
	b.respondState(c)
}

// Start resets the builder and enters build mode.
func (b *BuilderController) Start(c *gin.Context) {
	b.builder.StartBuilding()
	b.respondState(c)
}

// Cancel exits build mode; the last confirmed line stays on the map.
func (b *BuilderController) Cancel(c *gin.Context) {
	b.builder.CancelBuilding()
	b.respondState(c)
}

// SetField updates one scalar builder field.
func (b *BuilderController) SetField(c *gin.Context) {
	var input struct {
		Field string `json:"field" binding:"required"`
		Value any    `json:"value"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b.builder.SetField(builder.Field(input.Field), input.Value)
	b.respondState(c)
}

// AddWaypoint inserts an unresolved point before the destination.
func (b *BuilderController) AddWaypoint(c *gin.Context) {
	b.builder.AddWaypoint()
	b.respondState(c)
}

// RemoveWaypoint drops the waypoint at :index; origin and destination
// are silently kept.
func (b *BuilderController) RemoveWaypoint(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid point index"})
		return
	}
	b.builder.RemoveWaypoint(index)
	b.respondState(c)
}

type pointInput struct {
	StopID uint `json:"stop_id"`
}

// lookupStop resolves a stop reference for point updates; ID 0 means
// "clear the slot".
func (b *BuilderController) lookupStop(c *gin.Context, stopID uint) (models.Stop, bool) {
	if stopID == 0 {
		return models.Stop{}, true
	}
	stop, err := b.stops.GetStop(c.Request.Context(), stopID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stop not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return models.Stop{}, false
	}
	return stop, true
}

// UpdatePoint attaches (or clears) a stop on the point at :index.
func (b *BuilderController) UpdatePoint(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid point index"})
		return
	}
	var input pointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stop, ok := b.lookupStop(c, input.StopID)
	if !ok {
		return
	}
	b.builder.UpdatePoint(index, stop)
	b.respondState(c)
}

// SwapPoints reorders the point list.
func (b *BuilderController) SwapPoints(c *gin.Context) {
	var input struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b.builder.SwapPoints(input.From, input.To)
	b.respondState(c)
}

// StartSelection arms map-selection mode for the point at the given
// index; the next confirmed marker click resolves it.
func (b *BuilderController) StartSelection(c *gin.Context) {
	var input struct {
		Index int `json:"index"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b.builder.StartMapSelection(input.Index)
	b.respondState(c)
}

// ConfirmSelection resolves the armed point to the clicked stop.
func (b *BuilderController) ConfirmSelection(c *gin.Context) {
	var input pointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stop, ok := b.lookupStop(c, input.StopID)
	if !ok {
		return
	}
	b.builder.ConfirmMapSelection(stop)
	b.respondState(c)
}

// CancelSelection disarms map-selection mode.
func (b *BuilderController) CancelSelection(c *gin.Context) {
	b.builder.CancelMapSelection()
	b.respondState(c)
}

// Save runs the commit pipeline and maps its error taxonomy onto HTTP
// statuses: validation 422, configuration 503, no-path 422, re-entry
// 409, partial persistence 500 with the orphaned route id.
func (b *BuilderController) Save(c *gin.Context) {
	route, err := b.saver.Save(c.Request.Context())
	if err != nil {
		var verrs builder.ValidationError
		var partial *builder.PartialSaveError
		switch {
		case errors.As(err, &verrs):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string(verrs)})
		case errors.Is(err, builder.ErrSaveInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, builder.ErrProviderNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Directions provider is not configured. Set MAPBOX_TOKEN."})
		case errors.Is(err, directions.ErrNoRoute):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unable to calculate route path. Please adjust the stops."})
		case errors.As(err, &partial):
			logrus.WithError(err).Error("Save: partial persistence")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":    "Route was saved but its stops were not. Please retry or clean up.",
				"route_id": partial.RouteID,
			})
		default:
			logrus.WithError(err).Error("Save: failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save route: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"route": route, "message": "Route saved successfully."})
}
