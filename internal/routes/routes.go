package routes

import (
	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"commutewise/internal/controllers"
)

// Controllers bundles everything SetupRouter wires onto the engine.
type Controllers struct {
	Auth    *controllers.AuthController
	Stops   *controllers.StopController
	Builder *controllers.BuilderController
	Network *controllers.NetworkController
}

func SetupRouter(ctrl Controllers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Request logging
	r.Use(ginlogger.SetLogger(
		ginlogger.WithUTC(true),
		ginlogger.WithLogger(func(_ *gin.Context, l zerolog.Logger) zerolog.Logger {
			return l.With().Str("component", "http").Logger()
		}),
	))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if ctrl.Auth != nil {
		AuthRoutes(r, ctrl.Auth)
	}
	StopRoutes(r, ctrl.Stops)
	BuilderRoutes(r, ctrl.Builder)
	NetworkRoutes(r, ctrl.Network)

	return r
}
