package routes

import (
	"github.com/gin-gonic/gin"

	"commutewise/internal/controllers"
	"commutewise/internal/middleware"
)

func BuilderRoutes(r *gin.Engine, b *controllers.BuilderController) {
	group := r.Group("/builder")
	group.Use(middleware.RequireAuthWithRole("admin"))
	{
		group.GET("", b.GetState)
		group.POST("/start", b.Start)
		group.POST("/cancel", b.Cancel)
		group.POST("/field", b.SetField)

		group.POST("/waypoints", b.AddWaypoint)
		group.DELETE("/waypoints/:index", b.RemoveWaypoint)
		group.PUT("/points/:index", b.UpdatePoint)
		group.POST("/swap", b.SwapPoints)

		group.POST("/selection/start", b.StartSelection)
		group.POST("/selection/confirm", b.ConfirmSelection)
		group.POST("/selection/cancel", b.CancelSelection)

		group.POST("/save", b.Save)
	}
}
