package journal

import (
	"context"
	"fmt"

	"hyper_bot/internal/modules/config"
	"hyper_bot/internal/modules/journal/service"
	"hyper_bot/pkg/db"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*service.Journal, error) {
				if cfg.DB == "" {
					return service.NewDisabled(), nil
				}

				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				if err := poolMaster.Ping(ctx); err != nil {
					return nil, err
				}

				return service.NewJournal(db.NewPgTxManager(poolMaster)), nil
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, j *service.Journal) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return j.EnsureSchema(ctx)
				},
			})
		}),
	)
}
