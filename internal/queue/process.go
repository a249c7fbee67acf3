package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reaia/docgraph/pkg/logger"
	"github.com/reaia/docgraph/pkg/pipeline"
)

// IngestJobMsg is one ingestion job: run the pipeline over a source
// directory.
type IngestJobMsg struct {
	Message   string `json:"message,omitempty"`
	JobID     string `json:"job_id,omitempty"`
	SourceDir string `json:"source_dir"`
}

// ProcessIngestMessage parses an ingest job and runs the pipeline over
// its source directory.
func ProcessIngestMessage(ctx context.Context, p *pipeline.Pipeline, msg string) error {
	data := new(IngestJobMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to parse ingest job: %w", err)
	}
	if data.SourceDir == "" {
		return fmt.Errorf("ingest job has no source_dir")
	}

	logger.Info("[Queue] Processing ingest job", "job_id", data.JobID, "source_dir", data.SourceDir)

	result, err := p.Run(ctx, data.SourceDir)
	if err != nil {
		return err
	}

	logger.Info("[Queue] Ingest job complete",
		"job_id", data.JobID,
		"source_dir", data.SourceDir,
		"documents", result.DocumentsLoaded,
		"chunks", result.Chunks,
		"nodes", result.Stored.Nodes,
		"relationships", result.Stored.Relationships,
	)
	return nil
}
