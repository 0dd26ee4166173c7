package runner

import (
	"context"
	"time"

	"hyper_bot/internal/modules/config"
	"hyper_bot/internal/modules/health"
	healthsvc "hyper_bot/internal/modules/health/service"
	hlsvc "hyper_bot/internal/modules/hyperliquid/service"
	journalsvc "hyper_bot/internal/modules/journal/service"
	pionexsvc "hyper_bot/internal/modules/pionex/service"
	"hyper_bot/internal/notify"
	"hyper_bot/internal/precision"
	"hyper_bot/pkg/logger"
	"hyper_bot/pkg/tracing"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			// адаптеры конкретных клиентов под интерфейсы движка
			func(c *hlsvc.Client) Exchange { return c },
			func(c *hlsvc.Client) precision.MetaSource { return c },
			func(c *pionexsvc.Client) CandleSource { return c },
			func(j *journalsvc.Journal) Journal { return j },
			precision.NewNormalizer,
			NewEngine, // -> *Engine
		),

		// Телеграм: и нотифайер движка, и ручное управление им
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, e *Engine, hl *hlsvc.Client, ctx context.Context) error {
			if cfg.Telegram.Token == "" {
				return nil
			}
			tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, hl, e)
			if err != nil {
				return err
			}
			e.SetNotifier(tg)
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					return tg.Start(ctx)
				},
				OnStop: func(_ context.Context) error {
					tg.Stop()
					return nil
				},
			})
			return nil
		}),

		// трейсинг: включаем только если задан агент
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			if cfg.Jaeger.Host == "" {
				return nil
			}
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),

		// фоновые циклы: WS-стрим mid-ов, поллинг свечей, кэш позиций
		fx.Invoke(func(
			lc fx.Lifecycle,
			cfg *config.Config,
			e *Engine,
			hl *hlsvc.Client,
			state *healthsvc.State,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						state.SetWSConnected(true)
						hl.StreamMids(ctx, func(ts time.Time) {
							state.TouchTick(ts)
						})
						state.SetWSConnected(false)
					}()

					go pollLoop(ctx, cfg, e, hl, state)
					go refreshLoop(ctx, cfg, e)
					return nil
				},
			})
		}),
	)
}

func pollLoop(ctx context.Context, cfg *config.Config, e *Engine, hl *hlsvc.Client, state *healthsvc.State) {
	t := time.NewTicker(cfg.Trading.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rows, err := e.PollOnce(ctx)
			if err != nil {
				logger.Error("poll: %v", err)
				continue
			}
			state.SetReady(true)

			last := rows[len(rows)-1]
			logger.Info("features %s %s | close=%.4f mom3=%.5f vol_regime=%.3f atr5_pct=%.5f",
				cfg.Trading.Symbol, cfg.Trading.Interval,
				last.Close, last.Momentum3, last.VolatilityRegime, last.ATR5Pct)

			if mid, err := hl.MidPrice(ctx, cfg.Trading.Coin); err == nil {
				health.LastMid.WithLabelValues(cfg.Trading.Coin).Set(mid)
			}
		}
	}
}

func refreshLoop(ctx context.Context, cfg *config.Config, e *Engine) {
	t := time.NewTicker(cfg.Trading.PositionRefresh)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := e.RefreshPositions(ctx); err != nil {
				logger.Error("refresh positions: %v", err)
			}
		}
	}
}
