package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/reaia/docgraph/internal/app"
	"github.com/reaia/docgraph/internal/config"
	"github.com/reaia/docgraph/internal/queue"
	mid "github.com/reaia/docgraph/internal/server/middleware"
	"github.com/reaia/docgraph/pkg/logger"
	"github.com/reaia/docgraph/pkg/viz"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init(cfg *config.Config) {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

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

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, []string{queue.IngestQueue}); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	e.Use(mid.AppContextMiddleware(&mid.App{
		Pipeline: p,
		Viewer:   viz.NewViewer(viz.NewViewerParams{Querier: storage}),
		Queue:    ch,
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
