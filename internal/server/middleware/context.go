// Package middleware carries the application dependencies into echo
// handlers via a custom context.
package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/reaia/docgraph/pkg/pipeline"
	"github.com/reaia/docgraph/pkg/viz"
)

// App bundles the long-lived dependencies handlers need.
type App struct {
	Pipeline *pipeline.Pipeline
	Viewer   *viz.Viewer
	Queue    *amqp091.Channel
}

// AppContext is the request context with the application attached.
type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware wraps every request context with the application
// dependencies.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{c, app})
		}
	}
}
