package runner

import (
	"context"
	"strings"
	"testing"
	"time"

	"hyper_bot/internal/models"
	"hyper_bot/internal/precision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLongSizesByNotional(t *testing.T) {
	ex := &fakeExchange{mid: 25}
	e, j := newTestEngine(ex)

	require.NoError(t, e.OpenLong(context.Background(), "SOL", 50))

	require.Len(t, ex.placed, 1)
	require.Len(t, ex.placed[0], 1)
	o := ex.placed[0][0]

	assert.True(t, o.IsBuy)
	assert.False(t, o.ReduceOnly)
	assert.Nil(t, o.Trigger)
	assert.InDelta(t, 2.0, o.Sz, 1e-12) // 50 / 25
	assert.InDelta(t, 25.25, o.LimitPx, 1e-9)
	assert.True(t, strings.HasPrefix(o.Cloid, "0x"))
	assert.Equal(t, []string{"entry"}, j.notes)
}

func TestOpenLongClampsToOneLot(t *testing.T) {
	// SOL: szDecimals=3, лот 0.001; 0.02/25=0.0008 режется в ноль -> один лот
	ex := &fakeExchange{mid: 25}
	e, _ := newTestEngine(ex)

	require.NoError(t, e.OpenLong(context.Background(), "SOL", 0.02))

	require.Len(t, ex.placed, 1)
	assert.InDelta(t, 0.001, ex.placed[0][0].Sz, 1e-12)
}

func TestOpenLongRejectsBadNotional(t *testing.T) {
	ex := &fakeExchange{mid: 25}
	e, _ := newTestEngine(ex)

	err := e.OpenLong(context.Background(), "SOL", 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Empty(t, ex.placed)
}

func TestClosePositionLong(t *testing.T) {
	ex := &fakeExchange{
		mid: 25,
		pos: &models.PositionSnapshot{Coin: "SOL", Szi: 2, EntryPx: 24},
	}
	e, j := newTestEngine(ex)

	require.NoError(t, e.ClosePosition(context.Background(), "SOL"))

	require.Len(t, ex.placed, 1)
	o := ex.placed[0][0]

	// лонг закрываем продажей ниже mid-а
	assert.False(t, o.IsBuy)
	assert.True(t, o.ReduceOnly)
	assert.InDelta(t, 2.0, o.Sz, 1e-12)
	assert.InDelta(t, 24.75, o.LimitPx, 1e-9) // 25 * 0.99
	assert.Equal(t, []string{"close"}, j.notes)
}

func TestClosePositionShortBuysBack(t *testing.T) {
	ex := &fakeExchange{
		mid: 25,
		pos: &models.PositionSnapshot{Coin: "SOL", Szi: -1.5, EntryPx: 26},
	}
	e, _ := newTestEngine(ex)

	require.NoError(t, e.ClosePosition(context.Background(), "SOL"))

	require.Len(t, ex.placed, 1)
	o := ex.placed[0][0]

	assert.True(t, o.IsBuy)
	assert.True(t, o.ReduceOnly)
	assert.InDelta(t, 1.5, o.Sz, 1e-12)
	assert.InDelta(t, 25.25, o.LimitPx, 1e-9) // 25 * 1.01
}

func TestClosePositionNoPositionIsNoop(t *testing.T) {
	ex := &fakeExchange{mid: 25, pos: nil}
	e, j := newTestEngine(ex)

	require.NoError(t, e.ClosePosition(context.Background(), "SOL"))
	assert.Empty(t, ex.placed)
	assert.Empty(t, j.notes)
}

func TestSetIsolatedLeverage(t *testing.T) {
	ex := &fakeExchange{}
	e, _ := newTestEngine(ex)

	require.NoError(t, e.SetIsolatedLeverage(context.Background(), "SOL", 5))
	assert.Equal(t, 5, ex.leverage["SOL"])
}

func TestRefreshPositionsCache(t *testing.T) {
	ex := &fakeExchange{
		pos: &models.PositionSnapshot{Coin: "SOL", Szi: 2, EntryPx: 24},
	}
	e, _ := newTestEngine(ex)

	got, at := e.CachedPositions()
	assert.Empty(t, got)
	assert.True(t, at.IsZero())

	require.NoError(t, e.RefreshPositions(context.Background()))

	got, at = e.CachedPositions()
	require.Len(t, got, 1)
	assert.Equal(t, "SOL", got[0].Coin)
	assert.InDelta(t, 2.0, got[0].Szi, 1e-12)
	assert.WithinDuration(t, time.Now(), at, 5*time.Second)

	// позиция закрылась — кэш пустеет
	ex.pos = nil
	require.NoError(t, e.RefreshPositions(context.Background()))
	got, _ = e.CachedPositions()
	assert.Empty(t, got)
}

func TestPollOnceTooFewBars(t *testing.T) {
	j := &fakeJournal{}
	candles := &fakeCandles{bars: makeBars(5)}
	e := NewEngine(testConfig(), &fakeExchange{}, candles, precision.NewNormalizer(fakeMeta{}), j)

	_, err := e.PollOnce(context.Background())
	assert.Error(t, err)
}

func TestPollOnceComputesFeatures(t *testing.T) {
	j := &fakeJournal{}
	candles := &fakeCandles{bars: makeBars(15)}
	e := NewEngine(testConfig(), &fakeExchange{}, candles, precision.NewNormalizer(fakeMeta{}), j)

	rows, err := e.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 6) // 15 баров минус прогрев
}

func makeBars(n int) []models.Candle {
	bars := make([]models.Candle, n)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		px := 100 + float64(i)
		bars[i] = models.Candle{
			Time:   base.Add(time.Duration(i) * 5 * time.Minute),
			Open:   px,
			High:   px + 1,
			Low:    px - 1,
			Close:  px + 0.5,
			Volume: 10,
		}
	}
	return bars
}
