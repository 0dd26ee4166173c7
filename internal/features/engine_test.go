package features

import (
	"math"
	"testing"
	"time"

	"hyper_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkBars(closes []float64) []models.Candle {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Candle, 0, len(closes))
	for i, c := range closes {
		bars = append(bars, models.Candle{
			Time:   t0.Add(time.Duration(i) * 5 * time.Minute),
			Open:   c * 0.999,
			High:   c * 1.002,
			Low:    c * 0.997,
			Close:  c,
			Volume: 100,
		})
	}
	return bars
}

func TestComputeDropsWarmup(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := mkBars(closes)

	rows := Compute(bars)
	require.Len(t, rows, 15-9)
	assert.Equal(t, bars[9].Time, rows[0].Time)
	assert.Equal(t, bars[14].Time, rows[len(rows)-1].Time)
}

func TestComputeTooShort(t *testing.T) {
	assert.Nil(t, Compute(mkBars([]float64{1, 2, 3})))
	assert.Nil(t, Compute(nil))
}

func TestMomentumAndRange(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 110}
	rows := Compute(mkBars(closes))
	require.Len(t, rows, 1)

	r := rows[0]
	assert.InDelta(t, 110.0/100.0-1, r.Momentum3, 1e-12)
	assert.InDelta(t, (110*1.002-110*0.997)/110, r.RangeNorm, 1e-12)
	assert.InDelta(t, 110.0, r.Close, 1e-12)
}

func TestPositionCloseZeroRange(t *testing.T) {
	// свечи-точки: high == low, позиция close по конвенции 0.5
	t0 := time.Now().UTC()
	bars := make([]models.Candle, 12)
	for i := range bars {
		bars[i] = models.Candle{
			Time: t0.Add(time.Duration(i) * time.Minute),
			Open: 50, High: 50, Low: 50, Close: 50, Volume: 1,
		}
	}

	rows := Compute(bars)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Equal(t, 0.5, r.PositionClose)
		assert.Equal(t, 0.0, r.ClosePosDelta)
		assert.Equal(t, 0.0, r.RangeNorm)
	}
}

func TestVolatilityRegimeFlatIsOne(t *testing.T) {
	// одинаковые свечи -> ATR5 == ATR10 -> режим ровно 1
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 250
	}
	rows := Compute(mkBars(closes))
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.InDelta(t, 1.0, r.VolatilityRegime, 1e-9)
		assert.Greater(t, r.ATR5Pct, 0.0)
	}
}

func TestColumnsMatchValues(t *testing.T) {
	rows := Compute(mkBars([]float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110}))
	require.NotEmpty(t, rows)
	vals := rows[0].Values()
	require.Len(t, vals, len(Columns()))
	for i, v := range vals {
		assert.False(t, math.IsNaN(v), "column %s is NaN", Columns()[i])
	}
}
