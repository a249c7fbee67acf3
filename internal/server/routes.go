package server

import (
	"github.com/labstack/echo/v4"

	"github.com/reaia/docgraph/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	apiRoutes.POST("/pipeline", routes.RunPipelineHandler)
	apiRoutes.GET("/graph", routes.GetGraphHandler)
}
