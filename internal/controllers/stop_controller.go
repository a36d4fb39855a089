package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"commutewise/internal/geocoding"
	"commutewise/internal/models"
	"commutewise/internal/store"
)

// StopController handles the stop/terminal marker CRUD for the map.
type StopController struct {
	stops    store.StopStore
	geocoder *geocoding.Client
}

// NewStopController builds the controller. geocoder may be nil when no
// geocoding credential is configured; barangay labels then stay empty.
func NewStopController(stops store.StopStore, geocoder *geocoding.Client) *StopController {
	return &StopController{stops: stops, geocoder: geocoder}
}

// ListStops returns every marker for the map and sidebar.
func (s *StopController) ListStops(c *gin.Context) {
	stops, err := s.stops.ListStops(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("ListStops: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stops": stops})
}

type stopInput struct {
	Name         string   `json:"name" binding:"required"`
	Kind         string   `json:"kind"`
	Lat          float64  `json:"lat" binding:"required"`
	Lng          float64  `json:"lng" binding:"required"`
	VehicleTypes []string `json:"vehicle_types"`
	Barangay     string   `json:"barangay"`
}

// CreateStop inserts a marker. When no barangay label is provided the
// reverse geocoder fills it in (best effort, throttled).
func (s *StopController) CreateStop(c *gin.Context) {
	var input stopInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateStop: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	kind := input.Kind
	if kind == "" {
		kind = models.StopKindStop
	}
	if kind != models.StopKindStop && kind != models.StopKindTerminal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be \"stop\" or \"terminal\""})
		return
	}

	barangay := input.Barangay
	if barangay == "" && s.geocoder != nil {
		label, err := s.geocoder.Barangay(c.Request.Context(), input.Lat, input.Lng)
		if err != nil {
			logrus.WithError(err).Warn("CreateStop: reverse geocoding failed")
		} else {
			barangay = label
		}
	}

	stop := models.Stop{
		Name:         input.Name,
		Kind:         kind,
		Lat:          input.Lat,
		Lng:          input.Lng,
		VehicleTypes: pq.StringArray(input.VehicleTypes),
		Barangay:     barangay,
	}
	if err := s.stops.UpsertStop(c.Request.Context(), &stop); err != nil {
		logrus.WithError(err).Error("CreateStop: save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create stop failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"stop": stop})
}

// UpdateStop edits an existing marker.
func (s *StopController) UpdateStop(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stop ID"})
		return
	}

	stop, err := s.stops.GetStop(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stop not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	var input stopInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Kind != "" && input.Kind != models.StopKindStop && input.Kind != models.StopKindTerminal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be \"stop\" or \"terminal\""})
		return
	}

	stop.Name = input.Name
	if input.Kind != "" {
		stop.Kind = input.Kind
	}
	stop.Lat = input.Lat
	stop.Lng = input.Lng
	if input.VehicleTypes != nil {
		stop.VehicleTypes = pq.StringArray(input.VehicleTypes)
	}
	if input.Barangay != "" {
		stop.Barangay = input.Barangay
	}

	if err := s.stops.UpsertStop(c.Request.Context(), &stop); err != nil {
		logrus.WithError(err).Error("UpdateStop: save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stop": stop})
}

// DeleteStop removes a marker. Routes keeping it as origin lose their
// grouping, which the network list tolerates.
func (s *StopController) DeleteStop(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stop ID"})
		return
	}

	if err := s.stops.DeleteStop(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stop not found"})
		} else {
			logrus.WithError(err).Error("DeleteStop: delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Stop deleted successfully"})
}
