package hyperliquid

import (
	"hyper_bot/internal/modules/config"
	"hyper_bot/internal/modules/hyperliquid/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("hyperliquid",
		fx.Provide(
			func(cfg *config.Config) service.Signer {
				return service.NewHmacSigner(cfg.Hyperliquid.PrivateKey)
			},
			service.NewClient, // -> *service.Client
		),
	)
}
