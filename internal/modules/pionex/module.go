package pionex

import (
	"hyper_bot/internal/modules/pionex/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("pionex",
		fx.Provide(
			service.NewClient, // -> *service.Client
		),
	)
}
