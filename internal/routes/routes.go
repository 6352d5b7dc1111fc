package routes

import (
	"stockatelier/internal/container"
	"stockatelier/internal/middleware"
	"stockatelier/pkg/security"

	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes mounts login and the health probe; everything
// else requires a valid token.
func RegisterPublicRoutes(router *gin.Engine, c *container.Container) {
	c.LoginHandler.RegisterRoutes(router)
	router.GET("/health", middleware.HealthCheckHandler())
}

func RegisterProtectedRoutes(router *gin.Engine, c *container.Container) {
	protected := router.Group("/api")
	protected.Use(security.RequireAuth(c.UserRepository))

	c.MaterialHandler.RegisterRoutes(protected)
	c.MovementHandler.RegisterRoutes(protected)
	c.WorkHandler.RegisterRoutes(protected)
	c.UserHandler.RegisterRoutes(protected)
	c.DashboardHandler.RegisterRoutes(protected)
}
