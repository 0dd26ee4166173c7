package runner

import (
	"context"
	"fmt"
	"testing"

	"hyper_bot/internal/models"
	"hyper_bot/internal/modules/config"
	"hyper_bot/internal/precision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExchange struct {
	mid    float64
	midErr error
	pos    *models.PositionSnapshot
	posErr error

	placed   [][]models.OrderRequest
	grouping []string
	leverage map[string]int
}

func (f *fakeExchange) MidPrice(ctx context.Context, coin string) (float64, error) {
	if f.midErr != nil {
		return 0, f.midErr
	}
	return f.mid, nil
}

func (f *fakeExchange) Position(ctx context.Context, coin string) (*models.PositionSnapshot, error) {
	if f.posErr != nil {
		return nil, f.posErr
	}
	return f.pos, nil
}

func (f *fakeExchange) OpenPositions(ctx context.Context) ([]models.CachedPos, error) {
	if f.pos == nil {
		return nil, nil
	}
	return []models.CachedPos{{Coin: f.pos.Coin, Szi: f.pos.Szi, Entry: f.pos.EntryPx}}, nil
}

func (f *fakeExchange) BulkOrders(ctx context.Context, orders []models.OrderRequest, grouping string) error {
	f.placed = append(f.placed, orders)
	f.grouping = append(f.grouping, grouping)
	return nil
}

func (f *fakeExchange) UpdateIsolatedLeverage(ctx context.Context, coin string, leverage int) error {
	if f.leverage == nil {
		f.leverage = make(map[string]int)
	}
	f.leverage[coin] = leverage
	return nil
}

type fakeMeta struct{}

func (fakeMeta) AssetMetas(ctx context.Context) ([]models.AssetMeta, error) {
	return []models.AssetMeta{
		{Name: "BTC", SzDecimals: 5},
		{Name: "SOL", SzDecimals: 3},
	}, nil
}

type fakeCandles struct {
	bars []models.Candle
	err  error
}

func (f *fakeCandles) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	return f.bars, f.err
}

type fakeJournal struct {
	notes []string
}

func (f *fakeJournal) RecordOrder(ctx context.Context, o models.OrderRequest, note string) error {
	f.notes = append(f.notes, note)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Trading.Coin = "SOL"
	cfg.Trading.TakeProfitPct = 0.01
	cfg.Trading.StopLossPct = 0.002
	cfg.Trading.Slippage = 0.01
	return cfg
}

func newTestEngine(ex *fakeExchange) (*Engine, *fakeJournal) {
	j := &fakeJournal{}
	e := NewEngine(testConfig(), ex, &fakeCandles{}, precision.NewNormalizer(fakeMeta{}), j)
	return e, j
}

func TestBuildBracketLong(t *testing.T) {
	ex := &fakeExchange{
		pos: &models.PositionSnapshot{Coin: "SOL", Szi: 0.5, EntryPx: 100},
	}
	e, _ := newTestEngine(ex)

	spec, err := e.BuildBracket(context.Background(), "SOL", 0.01, 0.002)
	require.NoError(t, err)
	require.NotNil(t, spec)

	tp, sl := spec.TakeProfit, spec.StopLoss

	// лонг закрывается продажей, обе ноги одной стороной и одним размером
	assert.False(t, tp.IsBuy)
	assert.False(t, sl.IsBuy)
	assert.Equal(t, tp.Sz, sl.Sz)
	assert.InDelta(t, 0.5, tp.Sz, 1e-12)
	assert.True(t, tp.ReduceOnly)
	assert.True(t, sl.ReduceOnly)

	require.NotNil(t, tp.Trigger)
	require.NotNil(t, sl.Trigger)
	assert.Equal(t, models.TpslTakeProfit, tp.Trigger.Tpsl)
	assert.Equal(t, models.TpslStopLoss, sl.Trigger.Tpsl)
	assert.True(t, tp.Trigger.IsMarket)

	// entry=100: tp=101 (вниз), sl=99.8 (вниз); лимиты ниже триггеров
	assert.InDelta(t, 101.0, tp.Trigger.TriggerPx, 1e-9)
	assert.InDelta(t, 99.8, sl.Trigger.TriggerPx, 1e-9)
	assert.InDelta(t, 99.99, tp.LimitPx, 1e-9)   // 101 * 0.99
	assert.InDelta(t, 98.802, sl.LimitPx, 1e-9)  // 99.8 * 0.99
	assert.Less(t, tp.LimitPx, tp.Trigger.TriggerPx)
	assert.Less(t, sl.LimitPx, sl.Trigger.TriggerPx)
}

func TestBuildBracketShort(t *testing.T) {
	ex := &fakeExchange{
		pos: &models.PositionSnapshot{Coin: "SOL", Szi: -0.5, EntryPx: 100},
	}
	e, _ := newTestEngine(ex)

	spec, err := e.BuildBracket(context.Background(), "SOL", 0.01, 0.002)
	require.NoError(t, err)
	require.NotNil(t, spec)

	tp, sl := spec.TakeProfit, spec.StopLoss

	// шорт закрывается покупкой
	assert.True(t, tp.IsBuy)
	assert.True(t, sl.IsBuy)

	// entry=100: tp=99 (вверх), sl=100.2 (вверх); лимиты выше триггеров
	assert.InDelta(t, 99.0, tp.Trigger.TriggerPx, 1e-9)
	assert.InDelta(t, 100.2, sl.Trigger.TriggerPx, 1e-9)
	assert.InDelta(t, 99.99, tp.LimitPx, 1e-9)   // 99 * 1.01
	assert.InDelta(t, 101.21, sl.LimitPx, 1e-9)  // 100.2 * 1.01 -> 101.202 -> вверх к шагу 0.01
	assert.Greater(t, tp.LimitPx, tp.Trigger.TriggerPx)
	assert.Greater(t, sl.LimitPx, sl.Trigger.TriggerPx)
}

func TestBuildBracketNoPositionIsNoop(t *testing.T) {
	ex := &fakeExchange{pos: nil}
	e, _ := newTestEngine(ex)

	spec, err := e.BuildBracket(context.Background(), "SOL", 0.01, 0.002)
	require.NoError(t, err)
	assert.Nil(t, spec)
}

func TestBuildBracketInvalidPct(t *testing.T) {
	ex := &fakeExchange{
		pos: &models.PositionSnapshot{Coin: "SOL", Szi: 1, EntryPx: 100},
	}
	e, _ := newTestEngine(ex)

	_, err := e.BuildBracket(context.Background(), "SOL", 0, 0.002)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = e.BuildBracket(context.Background(), "SOL", 0.01, -1)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestBuildBracketEntryFallbackToMid(t *testing.T) {
	ex := &fakeExchange{
		mid: 250,
		pos: &models.PositionSnapshot{Coin: "SOL", Szi: 2, EntryPx: 0},
	}
	e, _ := newTestEngine(ex)

	spec, err := e.BuildBracket(context.Background(), "SOL", 0.01, 0.002)
	require.NoError(t, err)
	require.NotNil(t, spec)

	// entry подменён mid-ом 250: tp = 252.5, sl = 249.5
	assert.InDelta(t, 252.5, spec.TakeProfit.Trigger.TriggerPx, 1e-9)
	assert.InDelta(t, 249.5, spec.StopLoss.Trigger.TriggerPx, 1e-9)
}

func TestBuildBracketPriceUnavailable(t *testing.T) {
	ex := &fakeExchange{
		midErr: fmt.Errorf("%w: no quote", models.ErrPriceUnavailable),
		pos:    &models.PositionSnapshot{Coin: "SOL", Szi: 2, EntryPx: 0},
	}
	e, _ := newTestEngine(ex)

	spec, err := e.BuildBracket(context.Background(), "SOL", 0.01, 0.002)
	assert.ErrorIs(t, err, models.ErrPriceUnavailable)
	assert.Nil(t, spec)
}

func TestProtectPositionSubmitsBothLegsGrouped(t *testing.T) {
	ex := &fakeExchange{
		pos: &models.PositionSnapshot{Coin: "SOL", Szi: 0.5, EntryPx: 100},
	}
	e, j := newTestEngine(ex)

	require.NoError(t, e.ProtectPosition(context.Background(), "SOL"))

	require.Len(t, ex.placed, 1)
	assert.Len(t, ex.placed[0], 2)
	assert.Equal(t, models.GroupingPositionTpsl, ex.grouping[0])
	assert.Equal(t, []string{"tp", "sl"}, j.notes)
}

func TestProtectPositionNoPartialBracketOnFailure(t *testing.T) {
	// цены нет — не должно уйти ни одной ноги
	ex := &fakeExchange{
		midErr: fmt.Errorf("%w: no quote", models.ErrPriceUnavailable),
		pos:    &models.PositionSnapshot{Coin: "SOL", Szi: 2, EntryPx: 0},
	}
	e, j := newTestEngine(ex)

	err := e.ProtectPosition(context.Background(), "SOL")
	require.Error(t, err)
	assert.Empty(t, ex.placed)
	assert.Empty(t, j.notes)
}

func TestProtectPositionNoPositionIsNoop(t *testing.T) {
	ex := &fakeExchange{pos: nil}
	e, _ := newTestEngine(ex)

	require.NoError(t, e.ProtectPosition(context.Background(), "SOL"))
	assert.Empty(t, ex.placed)
}
