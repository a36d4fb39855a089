package routes

import (
	"github.com/gin-gonic/gin"

	"commutewise/internal/controllers"
	"commutewise/internal/middleware"
)

func StopRoutes(r *gin.Engine, stops *controllers.StopController) {
	// the map view is readable without a session
	r.GET("/stops", stops.ListStops)

	group := r.Group("/stops")
	group.Use(middleware.RequireAuthWithRole("admin"))
	{
		group.POST("", stops.CreateStop)
		group.PUT("/:id", stops.UpdateStop)
		group.DELETE("/:id", stops.DeleteStop)
	}
}
