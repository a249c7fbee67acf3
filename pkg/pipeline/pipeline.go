// Package pipeline runs the document-to-graph flow end to end: load,
// chunk, extract, store.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/reaia/docgraph/pkg/chunker"
	"github.com/reaia/docgraph/pkg/graph"
	"github.com/reaia/docgraph/pkg/loader"
	"github.com/reaia/docgraph/pkg/loader/docx"
	"github.com/reaia/docgraph/pkg/loader/pdf"
	"github.com/reaia/docgraph/pkg/logger"
	"github.com/reaia/docgraph/pkg/store"
)

// Stage names the pipeline phase an error originated in.
type Stage string

const (
	StageLoading    Stage = "loading"
	StageChunking   Stage = "chunking"
	StageExtracting Stage = "extracting"
	StageStoring    Stage = "storing"
)

// Error wraps a failure with the stage it happened in, so callers can
// tell an unreadable source directory from an unreachable database.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline %s failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result summarizes one pipeline run.
type Result struct {
	DocumentsLoaded int               `json:"documents_loaded"`
	Chunks          int               `json:"chunks"`
	Stored          store.StoreResult `json:"stored"`
}

// Extractor is the extraction dependency of the pipeline: one chunk in,
// one graph document out.
type Extractor interface {
	Extract(ctx context.Context, chunk chunker.Chunk) (graph.Document, error)
}

// Pipeline wires the four stages together. Extraction runs chunks in
// parallel; everything else is sequential.
//
// A Pipeline should be created using NewPipeline.
type Pipeline struct {
	loader      *loader.DirectoryLoader
	chunker     *chunker.Chunker
	extractor   Extractor
	writer      store.GraphWriter
	concurrency int
}

// NewPipelineParams defines the configuration for creating a new
// Pipeline. Concurrency bounds the number of chunks extracted at once;
// zero falls back to the CPU count.
type NewPipelineParams struct {
	Loader      *loader.DirectoryLoader
	Chunker     *chunker.Chunker
	Extractor   Extractor
	Writer      store.GraphWriter
	Concurrency int
}

// NewPipeline creates a Pipeline from its stage dependencies.
func NewPipeline(params NewPipelineParams) *Pipeline {
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Pipeline{
		loader:      params.Loader,
		chunker:     params.Chunker,
		extractor:   params.Extractor,
		writer:      params.Writer,
		concurrency: concurrency,
	}
}

// DefaultParsers returns the parser registry for the supported source
// formats.
func DefaultParsers() map[string]loader.Parser {
	return map[string]loader.Parser{
		".pdf":  pdf.NewParser(),
		".docx": docx.NewParser(),
	}
}

// Run executes the pipeline over one source directory. The first stage
// failure aborts the run with a stage-tagged Error; extraction output
// that fails validation aborts the run at the extracting stage before
// anything from it is stored.
func (p *Pipeline) Run(ctx context.Context, dir string) (Result, error) {
	result := Result{}

	documents, err := p.loader.Load(ctx, dir)
	if err != nil {
		return result, &Error{Stage: StageLoading, Err: err}
	}
	result.DocumentsLoaded = len(documents)

	chunks := p.chunker.Chunk(documents)
	result.Chunks = len(chunks)
	logger.Info("[Pipeline] Chunking complete", "documents", len(documents), "chunks", len(chunks))
	if len(chunks) == 0 {
		return result, nil
	}

	type extracted struct {
		order int
		doc   graph.Document
	}

	var (
		mu      sync.Mutex
		results []extracted
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.concurrency)

	for i, chunk := range chunks {
		group.Go(func() error {
			doc, err := p.extractor.Extract(groupCtx, chunk)
			if err != nil {
				return fmt.Errorf("chunk %d (%s): %w", chunk.Index, chunk.Metadata["source"], err)
			}

			mu.Lock()
			results = append(results, extracted{order: i, doc: doc})
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return result, &Error{Stage: StageExtracting, Err: err}
	}

	// Restore chunk order so storage writes are deterministic.
	sort.Slice(results, func(a, b int) bool { return results[a].order < results[b].order })
	graphDocs := make([]graph.Document, len(results))
	for i, r := range results {
		graphDocs[i] = r.doc
	}

	stored, err := p.writer.SaveDocuments(ctx, graphDocs)
	result.Stored = stored
	if err != nil {
		return result, &Error{Stage: StageStoring, Err: err}
	}

	logger.Info("[Pipeline] Run complete",
		"documents", result.DocumentsLoaded,
		"chunks", result.Chunks,
		"nodes", stored.Nodes,
		"relationships", stored.Relationships,
	)
	return result, nil
}
