// Package app wires the configured adapters into runnable components.
// All three entrypoints (pipeline, server, worker) build from here so
// backend and adapter selection lives in one place.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/reaia/docgraph/internal/config"
	"github.com/reaia/docgraph/internal/util"
	"github.com/reaia/docgraph/pkg/ai"
	oai "github.com/reaia/docgraph/pkg/ai/ollama"
	gai "github.com/reaia/docgraph/pkg/ai/openai"
	"github.com/reaia/docgraph/pkg/chunker"
	"github.com/reaia/docgraph/pkg/graph"
	"github.com/reaia/docgraph/pkg/loader"
	"github.com/reaia/docgraph/pkg/pipeline"
	"github.com/reaia/docgraph/pkg/store"
	neostore "github.com/reaia/docgraph/pkg/store/neo4j"
	pgstore "github.com/reaia/docgraph/pkg/store/pgx"
)

// NewAIClient builds the configured chat adapter.
func NewAIClient(cfg *config.Config) (ai.GraphAIClient, error) {
	switch cfg.AIAdapter {
	case "ollama":
		return oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ExtractionModel: cfg.ExtractionModel,

			BaseURL: cfg.ChatURL,
			ApiKey:  cfg.ChatKey,

			MaxConcurrentRequests: int64(cfg.ParallelReq),
		})
	default:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ExtractionModel: cfg.ExtractionModel,

			ChatURL: cfg.ChatURL,
			ChatKey: cfg.ChatKey,
		}), nil
	}
}

// storageConnectTries covers databases that are still starting up next
// to the process, e.g. under compose.
const storageConnectTries = 3

// NewStorage builds the configured graph storage backend. The returned
// closer releases the underlying driver or pool and must be called on
// shutdown.
func NewStorage(ctx context.Context, cfg *config.Config) (store.GraphStorage, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s := pgstore.NewStore(pool, pgstore.NewStoreParams{IncludeSource: cfg.IncludeSource})
		err = util.RetryErrWithContext(ctx, storageConnectTries, func(ctx context.Context) error {
			return s.EnsureSchema(ctx)
		})
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, pool.Close, nil
	default:
		driver, err := util.RetryWithContext(ctx, storageConnectTries,
			func(ctx context.Context) (neo4j.DriverWithContext, error) {
				return neostore.NewDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
			})
		if err != nil {
			return nil, nil, err
		}
		s := neostore.NewStore(driver, neostore.NewStoreParams{
			Database:      cfg.Neo4jDatabase,
			IncludeSource: cfg.IncludeSource,
		})
		closer := func() { _ = driver.Close(context.Background()) }
		return s, closer, nil
	}
}

// NewPipeline builds the full document-to-graph pipeline on top of an
// AI client and a storage backend.
func NewPipeline(cfg *config.Config, aiClient ai.GraphAIClient, storage store.GraphWriter) (*pipeline.Pipeline, error) {
	tokenizer, err := chunker.NewTiktokenTokenizer(cfg.TokenEncoding)
	if err != nil {
		return nil, err
	}
	chk, err := chunker.NewChunker(chunker.NewChunkerParams{
		Tokenizer: tokenizer,
		ChunkSize: cfg.ChunkSize,
		Overlap:   cfg.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}

	policy := loader.SkipAndWarn
	if cfg.FailFast {
		policy = loader.FailFast
	}

	return pipeline.NewPipeline(pipeline.NewPipelineParams{
		Loader: loader.NewDirectoryLoader(loader.NewDirectoryLoaderParams{
			Parsers: pipeline.DefaultParsers(),
			Policy:  policy,
		}),
		Chunker:     chk,
		Extractor:   graph.NewExtractor(graph.NewExtractorParams{Client: aiClient}),
		Writer:      storage,
		Concurrency: cfg.Concurrency,
	}), nil
}
