package main

import (
	"github.com/reaia/docgraph/internal/config"
	"github.com/reaia/docgraph/internal/server"
	"github.com/reaia/docgraph/internal/util"
	"github.com/reaia/docgraph/pkg/logger"
	"github.com/reaia/docgraph/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	server.Init(cfg)
}
