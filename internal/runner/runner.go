package runner

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"hyper_bot/internal/features"
	"hyper_bot/internal/models"
	"hyper_bot/internal/modules/config"
	"hyper_bot/internal/modules/health"
	"hyper_bot/internal/notify"
	"hyper_bot/internal/precision"
	"hyper_bot/pkg/logger"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
)

// Exchange — всё, что движку нужно от биржи исполнения.
type Exchange interface {
	MidPrice(ctx context.Context, coin string) (float64, error)
	Position(ctx context.Context, coin string) (*models.PositionSnapshot, error)
	OpenPositions(ctx context.Context) ([]models.CachedPos, error)
	BulkOrders(ctx context.Context, orders []models.OrderRequest, grouping string) error
	UpdateIsolatedLeverage(ctx context.Context, coin string, leverage int) error
}

// CandleSource — маркет-дата (Pionex).
type CandleSource interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}

// Journal — запись ордеров в журнал сделок.
type Journal interface {
	RecordOrder(ctx context.Context, o models.OrderRequest, note string) error
}

// Notifier — куда слать человекочитаемые события.
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Engine — склейка: маркет-дата -> фичи -> ордера с защитой.
// Торговые операции сериализованы opMu: нормализатор и его кэш
// не потокобезопасны, в один момент времени работает одна операция.
type Engine struct {
	cfg     *config.Config
	ex      Exchange
	candles CandleSource
	norm    *precision.Normalizer
	journal Journal
	notify  Notifier

	opMu sync.Mutex

	posCacheMu sync.RWMutex
	posCache   map[string]models.CachedPos
	posCacheAt time.Time
}

func NewEngine(
	cfg *config.Config,
	ex Exchange,
	candles CandleSource,
	norm *precision.Normalizer,
	journal Journal,
) *Engine {
	return &Engine{
		cfg:      cfg,
		ex:       ex,
		candles:  candles,
		norm:     norm,
		journal:  journal,
		notify:   notify.NewStdout(),
		posCache: make(map[string]models.CachedPos),
	}
}

// SetNotifier подменяет нотифайер (телеграм подключается после сборки
// движка — иначе циклическая зависимость в DI).
func (e *Engine) SetNotifier(n Notifier) {
	if n != nil {
		e.notify = n
	}
}

// PollOnce — один цикл маркет-даты: свечи -> фичи. Возвращает строки фичей
// по закрытым свечам (прогрев уже отброшен).
func (e *Engine) PollOnce(ctx context.Context) ([]features.Row, error) {
	bars, err := e.candles.GetKlines(ctx, e.cfg.Trading.Symbol, e.cfg.Trading.Interval, e.cfg.Trading.CandleLimit)
	if err != nil {
		return nil, fmt.Errorf("poll klines: %w", err)
	}
	health.CandlesFetched.Add(float64(len(bars)))

	rows := features.Compute(bars)
	if len(rows) == 0 {
		return nil, fmt.Errorf("poll: not enough bars for features (%d)", len(bars))
	}
	return rows, nil
}

// OpenLong открывает лонг по рынку на заданный нотионал USDC:
// size = notional / mid, далее через нормализатор. "Маркет" — агрессивный
// IOC-лимит от mid со слиппеджем вверх.
func (e *Engine) OpenLong(ctx context.Context, coin string, notionalUSDC float64) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	span, ctx := opentracing.StartSpanFromContext(ctx, "runner.OpenLong")
	defer span.Finish()

	if notionalUSDC <= 0 {
		return fmt.Errorf("OpenLong: %w: notional=%.4f", models.ErrInvalidInput, notionalUSDC)
	}

	mid, err := e.ex.MidPrice(ctx, coin)
	if err != nil {
		return fmt.Errorf("OpenLong mid: %w", err)
	}

	sz, err := e.norm.QuantizeSize(ctx, coin, notionalUSDC/mid)
	if err != nil {
		return fmt.Errorf("OpenLong size: %w", err)
	}

	// покупаем — лимит выше mid, квантуем вверх, чтобы не отрезать агрессию
	px := precision.QuantizePrice(mid*(1+e.cfg.Trading.Slippage), precision.Up)

	order := models.OrderRequest{
		Coin:    coin,
		IsBuy:   true,
		Sz:      sz,
		LimitPx: px,
		Cloid:   newCloid(),
	}

	logger.Info("LONG %s | mid=%.4f | notional=%.2f -> sz=%v", coin, mid, notionalUSDC, sz)

	if err := e.ex.BulkOrders(ctx, []models.OrderRequest{order}, ""); err != nil {
		return fmt.Errorf("OpenLong submit: %w", err)
	}

	health.OrdersPlaced.WithLabelValues("entry").Inc()
	e.recordOrder(ctx, order, "entry")
	e.notify.Sendf("📈 LONG %s sz=%v px=%v (notional %.2f USDC)", coin, sz, px, notionalUSDC)
	return nil
}

// ClosePosition закрывает позицию по рынку (reduce-only IOC в сторону выхода).
// Нет позиции — no-op.
func (e *Engine) ClosePosition(ctx context.Context, coin string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	span, ctx := opentracing.StartSpanFromContext(ctx, "runner.ClosePosition")
	defer span.Finish()

	pos, err := e.ex.Position(ctx, coin)
	if err != nil {
		return fmt.Errorf("ClosePosition state: %w", err)
	}
	if pos == nil {
		logger.Info("ClosePosition %s: нет позиции", coin)
		return nil
	}

	sz, err := e.norm.QuantizeSize(ctx, coin, math.Abs(pos.Szi))
	if err != nil {
		return fmt.Errorf("ClosePosition size: %w", err)
	}

	mid, err := e.ex.MidPrice(ctx, coin)
	if err != nil {
		return fmt.Errorf("ClosePosition mid: %w", err)
	}

	closeIsBuy := !pos.IsLong()
	var px float64
	if closeIsBuy {
		px = precision.QuantizePrice(mid*(1+e.cfg.Trading.Slippage), precision.Up)
	} else {
		px = precision.QuantizePrice(mid*(1-e.cfg.Trading.Slippage), precision.Down)
	}

	order := models.OrderRequest{
		Coin:       coin,
		IsBuy:      closeIsBuy,
		Sz:         sz,
		LimitPx:    px,
		ReduceOnly: true,
		Cloid:      newCloid(),
	}

	if err := e.ex.BulkOrders(ctx, []models.OrderRequest{order}, ""); err != nil {
		return fmt.Errorf("ClosePosition submit: %w", err)
	}

	health.OrdersPlaced.WithLabelValues("close").Inc()
	e.recordOrder(ctx, order, "close")
	e.notify.Sendf("🔒 CLOSE %s sz=%v px=%v", coin, sz, px)
	return nil
}

// SetIsolatedLeverage — изолированное плечо по монете.
func (e *Engine) SetIsolatedLeverage(ctx context.Context, coin string, leverage int) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	return e.ex.UpdateIsolatedLeverage(ctx, coin, leverage)
}

// RefreshPositions обновляет кэш открытых позиций (для /positions и health).
func (e *Engine) RefreshPositions(ctx context.Context) error {
	positions, err := e.ex.OpenPositions(ctx)
	if err != nil {
		return err
	}

	next := make(map[string]models.CachedPos, len(positions))
	for _, p := range positions {
		if math.Abs(p.Szi) == 0 {
			continue
		}
		next[p.Coin] = p
	}

	e.posCacheMu.Lock()
	e.posCache = next
	e.posCacheAt = time.Now()
	e.posCacheMu.Unlock()

	return nil
}

// CachedPositions — последний снятый срез позиций (может быть пустым).
func (e *Engine) CachedPositions() ([]models.CachedPos, time.Time) {
	e.posCacheMu.RLock()
	defer e.posCacheMu.RUnlock()

	out := make([]models.CachedPos, 0, len(e.posCache))
	for _, p := range e.posCache {
		out = append(out, p)
	}
	return out, e.posCacheAt
}

func (e *Engine) recordOrder(ctx context.Context, o models.OrderRequest, note string) {
	if e.journal == nil {
		return
	}
	if err := e.journal.RecordOrder(ctx, o, note); err != nil {
		logger.Error("journal: %v", err)
	}
}

// cloid — 16 байт в hex, как ждёт биржа.
func newCloid() string {
	u := uuid.New()
	return fmt.Sprintf("0x%x", u[:])
}
