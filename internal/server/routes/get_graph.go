package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/reaia/docgraph/internal/server/middleware"
	"github.com/reaia/docgraph/pkg/logger"
	"github.com/reaia/docgraph/pkg/store"
	"github.com/reaia/docgraph/pkg/viz"
)

// GetGraphHandler runs a triple query and returns the shaped
// visualization graph. An empty query falls back to a bounded sample of
// the entity graph.
func GetGraphHandler(c echo.Context) error {
	type getGraphResponse struct {
		Message string                  `json:"message,omitempty"`
		Graph   *viz.VisualizationGraph `json:"graph,omitempty"`
	}

	query := c.QueryParam("query")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	app := c.(*middleware.AppContext).App
	graph, err := app.Viewer.Visualize(c.Request().Context(), query, limit)
	if err != nil {
		if store.IsRetryable(err) {
			return c.JSON(http.StatusServiceUnavailable, getGraphResponse{
				Message: "Graph store unavailable",
			})
		}
		var qErr *store.QueryError
		if errors.As(err, &qErr) {
			return c.JSON(http.StatusBadRequest, getGraphResponse{
				Message: "Invalid graph query",
			})
		}
		logger.Error("Graph visualization failed", "err", err)
		return c.JSON(http.StatusInternalServerError, getGraphResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getGraphResponse{
		Graph: &graph,
	})
}
