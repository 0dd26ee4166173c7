package main

import (
	"context"
	"log"

	"hyper_bot/internal/modules/config"
	"hyper_bot/internal/modules/health"
	"hyper_bot/internal/modules/hyperliquid"
	"hyper_bot/internal/modules/journal"
	"hyper_bot/internal/modules/pionex"
	"hyper_bot/internal/runner"
	"hyper_bot/pkg/logger"
	"hyper_bot/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	logger.SetServiceName("hyper_bot")
	tracing.SetServiceName("hyper_bot")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		journal.Module(),
		hyperliquid.Module(),
		pionex.Module(),
		health.Module(),
		runner.Module(),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-app.Done()
}
