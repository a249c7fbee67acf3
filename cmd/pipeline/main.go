package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/reaia/docgraph/internal/app"
	"github.com/reaia/docgraph/internal/config"
	"github.com/reaia/docgraph/internal/util"
	"github.com/reaia/docgraph/pkg/logger"
	"github.com/reaia/docgraph/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	dir := flag.String("dir", "", "source directory to ingest")
	flag.Parse()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	sourceDir := *dir
	if sourceDir == "" {
		sourceDir = util.GetEnv("SOURCE_DIR")
	}
	if sourceDir == "" {
		logger.Fatal("No source directory given, use -dir or SOURCE_DIR")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aiClient, err := app.NewAIClient(cfg)
	if err != nil {
		logger.Fatal("Failed to create AI client", "err", err)
	}

	storage, closeStorage, err := app.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to graph store", "err", err)
	}
	defer closeStorage()

	p, err := app.NewPipeline(cfg, aiClient, storage)
	if err != nil {
		logger.Fatal("Failed to build pipeline", "err", err)
	}

	result, err := p.Run(ctx, sourceDir)
	if err != nil {
		logger.Fatal("Pipeline run failed", "dir", sourceDir, "err", err)
	}

	metrics := aiClient.Metrics()
	logger.Info("Ingestion complete",
		"dir", sourceDir,
		"documents", result.DocumentsLoaded,
		"chunks", result.Chunks,
		"nodes", result.Stored.Nodes,
		"relationships", result.Stored.Relationships,
		"input_tokens", metrics.InputTokens,
		"output_tokens", metrics.OutputTokens,
	)
}
