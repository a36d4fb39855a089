package routes

import (
	"github.com/gin-gonic/gin"

	"commutewise/internal/controllers"
	"commutewise/internal/middleware"
)

func NetworkRoutes(r *gin.Engine, n *controllers.NetworkController) {
	// read-only network view for the map and sidebar
	r.GET("/network", n.GetNetwork)

	group := r.Group("/network")
	group.Use(middleware.RequireAuthWithRole("admin"))
	{
		group.POST("/reload", n.Reload)
		group.PUT("/routes/:id", n.UpdateRouteMeta)
		group.DELETE("/routes/:id", n.DeleteRoute)
		group.POST("/routes/:id/edit", n.StartEdit)
		group.DELETE("/edit", n.ClearEdit)
		group.POST("/hover", n.SetHover)
		group.POST("/focus", n.SetFocus)
	}
}
