package runner

import (
	"context"
	"fmt"
	"math"

	"hyper_bot/internal/models"
	"hyper_bot/internal/modules/health"
	"hyper_bot/internal/precision"
	"hyper_bot/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

// BuildBracket строит пару reduce-only триггеров (TP + SL) по открытой
// позиции. Позиции нет — (nil, nil): защищать нечего, это не ошибка.
// Обе ноги либо строятся целиком, либо не строится ничего.
//
// Лонг: tp = entry*(1+tpPct), sl = entry*(1-slPct); лимиты для закрывающего
// SELL смещаем НИЖЕ триггера на слиппедж, все четыре цены квантуем вниз.
// Шорт — зеркально: лимиты выше, квантуем вверх.
func (e *Engine) BuildBracket(ctx context.Context, coin string, tpPct, slPct float64) (*models.BracketSpec, error) {
	if tpPct <= 0 || slPct <= 0 {
		return nil, fmt.Errorf("BuildBracket: %w: tpPct=%.6f slPct=%.6f", models.ErrInvalidInput, tpPct, slPct)
	}

	pos, err := e.ex.Position(ctx, coin)
	if err != nil {
		return nil, fmt.Errorf("BuildBracket state: %w", err)
	}
	if pos == nil {
		return nil, nil
	}

	// на всякий случай перегоняем размер через нормализатор ещё раз
	szAbs, err := e.norm.QuantizeSize(ctx, coin, math.Abs(pos.Szi))
	if err != nil {
		return nil, fmt.Errorf("BuildBracket size: %w", err)
	}

	isLong := pos.IsLong()
	closeIsBuy := !isLong // лонг закрываем sell-ом, шорт — buy-ем

	entry := pos.EntryPx
	if entry <= 0 {
		// протухший/пустой entry — опираемся на текущий mid
		entry, err = e.ex.MidPrice(ctx, coin)
		if err != nil {
			return nil, fmt.Errorf("BuildBracket entry fallback: %w", err)
		}
	}

	slip := e.cfg.Trading.Slippage

	var tpTrigger, slTrigger, tpLimit, slLimit float64
	if isLong {
		tpTrigger = entry * (1 + tpPct)
		slTrigger = entry * (1 - slPct)
		tpLimit = tpTrigger * (1 - slip)
		slLimit = slTrigger * (1 - slip)

		tpTrigger = precision.QuantizePrice(tpTrigger, precision.Down)
		slTrigger = precision.QuantizePrice(slTrigger, precision.Down)
		tpLimit = precision.QuantizePrice(tpLimit, precision.Down)
		slLimit = precision.QuantizePrice(slLimit, precision.Down)
	} else {
		tpTrigger = entry * (1 - tpPct)
		slTrigger = entry * (1 + slPct)
		tpLimit = tpTrigger * (1 + slip)
		slLimit = slTrigger * (1 + slip)

		tpTrigger = precision.QuantizePrice(tpTrigger, precision.Up)
		slTrigger = precision.QuantizePrice(slTrigger, precision.Up)
		tpLimit = precision.QuantizePrice(tpLimit, precision.Up)
		slLimit = precision.QuantizePrice(slLimit, precision.Up)
	}

	logger.Info("TP/SL %s | entry=%.4f | tp=%.4f (limit %.4f) | sl=%.4f (limit %.4f) | sz=%.6f",
		coin, entry, tpTrigger, tpLimit, slTrigger, slLimit, szAbs)

	return &models.BracketSpec{
		TakeProfit: models.OrderRequest{
			Coin:    coin,
			IsBuy:   closeIsBuy,
			Sz:      szAbs,
			LimitPx: tpLimit,
			Trigger: &models.TriggerSpec{
				TriggerPx: tpTrigger,
				IsMarket:  true,
				Tpsl:      models.TpslTakeProfit,
			},
			ReduceOnly: true,
			Cloid:      newCloid(),
		},
		StopLoss: models.OrderRequest{
			Coin:    coin,
			IsBuy:   closeIsBuy,
			Sz:      szAbs,
			LimitPx: slLimit,
			Trigger: &models.TriggerSpec{
				TriggerPx: slTrigger,
				IsMarket:  true,
				Tpsl:      models.TpslStopLoss,
			},
			ReduceOnly: true,
			Cloid:      newCloid(),
		},
	}, nil
}

// ProtectPosition строит брекет по текущей позиции и отправляет обе ноги
// одним запросом с группировкой positionTpsl. Частичного брекета не бывает:
// или обе ноги приняты биржей, или ордера не уходят вовсе.
func (e *Engine) ProtectPosition(ctx context.Context, coin string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	span, ctx := opentracing.StartSpanFromContext(ctx, "runner.ProtectPosition")
	defer span.Finish()

	spec, err := e.BuildBracket(ctx, coin, e.cfg.Trading.TakeProfitPct, e.cfg.Trading.StopLossPct)
	if err != nil {
		return err
	}
	if spec == nil {
		logger.Info("ProtectPosition %s: нет позиции, защищать нечего", coin)
		return nil
	}

	if err := e.ex.BulkOrders(ctx, spec.Orders(), models.GroupingPositionTpsl); err != nil {
		return fmt.Errorf("ProtectPosition submit: %w", err)
	}

	health.OrdersPlaced.WithLabelValues("tp").Inc()
	health.OrdersPlaced.WithLabelValues("sl").Inc()
	e.recordOrder(ctx, spec.TakeProfit, "tp")
	e.recordOrder(ctx, spec.StopLoss, "sl")

	e.notify.Sendf("🛡️ TP/SL %s | tp=%v (limit %v) | sl=%v (limit %v) | sz=%v",
		coin,
		spec.TakeProfit.Trigger.TriggerPx, spec.TakeProfit.LimitPx,
		spec.StopLoss.Trigger.TriggerPx, spec.StopLoss.LimitPx,
		spec.TakeProfit.Sz,
	)
	return nil
}
