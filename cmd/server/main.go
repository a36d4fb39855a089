package main

import (
	"log"
	"net/http"

	"commutewise/internal/builder"
	"commutewise/internal/config"
	"commutewise/internal/controllers"
	"commutewise/internal/directions"
	"commutewise/internal/geocoding"
	"commutewise/internal/logger"
	"commutewise/internal/middleware"
	"commutewise/internal/network"
	"commutewise/internal/routes"
	"commutewise/internal/store"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	cfg := config.Load()

	// Connect to the database
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	records := store.NewGorm(db)

	// External providers. A missing token leaves the directions
	// provider nil: previews degrade, saves abort with a config error.
	var provider directions.Provider
	var geocoder *geocoding.Client
	if cfg.MapboxToken != "" {
		provider = directions.NewMapboxClient(cfg.MapboxToken, cfg.DirectionsURL)
		geocoder = geocoding.NewClient(cfg.MapboxToken, cfg.GeocodingURL)
	} else {
		log.Println("MAPBOX_TOKEN not set – path computation disabled")
	}

	// Core state containers, owned here and injected downstream.
	routeBuilder := builder.New()
	builder.NewPreviewEngine(routeBuilder, records, provider)
	saver := builder.NewSaver(routeBuilder, records, provider, records)
	cache := network.NewCache(records)

	r := routes.SetupRouter(routes.Controllers{
		Auth:    controllers.NewAuthController(db),
		Stops:   controllers.NewStopController(records, geocoder),
		Builder: controllers.NewBuilderController(routeBuilder, saver, records),
		Network: controllers.NewNetworkController(cache, records, records),
	})

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := "0.0.0.0:" + cfg.Port
	log.Printf("🚀 Server running at %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
