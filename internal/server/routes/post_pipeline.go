package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/reaia/docgraph/internal/queue"
	"github.com/reaia/docgraph/internal/server/middleware"
	"github.com/reaia/docgraph/pkg/logger"
	"github.com/reaia/docgraph/pkg/pipeline"
	"github.com/reaia/docgraph/pkg/store"
)

// RunPipelineHandler runs the ingestion pipeline over a source
// directory, either inline or by enqueueing a worker job.
func RunPipelineHandler(c echo.Context) error {
	type runPipelineBody struct {
		SourceDir string `json:"source_dir" validate:"required"`
		Async     bool   `json:"async"`
	}

	type runPipelineResponse struct {
		Message string           `json:"message"`
		JobID   string           `json:"job_id,omitempty"`
		Result  *pipeline.Result `json:"result,omitempty"`
	}

	data := new(runPipelineBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, runPipelineResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, runPipelineResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App

	if data.Async {
		jobID, err := gonanoid.New()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, runPipelineResponse{
				Message: "Internal server error",
			})
		}
		msg, err := json.Marshal(queue.IngestJobMsg{
			Message:   "Ingestion requested",
			JobID:     jobID,
			SourceDir: data.SourceDir,
		})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, runPipelineResponse{
				Message: "Internal server error",
			})
		}
		if err := queue.PublishFIFO(app.Queue, queue.IngestQueue, msg); err != nil {
			logger.Error("Failed to publish ingest job", "err", err)
			return c.JSON(http.StatusInternalServerError, runPipelineResponse{
				Message: "Internal server error",
			})
		}
		return c.JSON(http.StatusAccepted, runPipelineResponse{
			Message: "Ingestion job enqueued",
			JobID:   jobID,
		})
	}

	result, err := app.Pipeline.Run(c.Request().Context(), data.SourceDir)
	if err != nil {
		logger.Error("Pipeline run failed", "source_dir", data.SourceDir, "err", err)
		if store.IsRetryable(err) {
			return c.JSON(http.StatusServiceUnavailable, runPipelineResponse{
				Message: "Graph store unavailable",
			})
		}
		var stageErr *pipeline.Error
		if errors.As(err, &stageErr) && stageErr.Stage == pipeline.StageLoading {
			return c.JSON(http.StatusBadRequest, runPipelineResponse{
				Message: "Source directory could not be read",
			})
		}
		return c.JSON(http.StatusInternalServerError, runPipelineResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, runPipelineResponse{
		Message: "Pipeline run complete",
		Result:  &result,
	})
}
