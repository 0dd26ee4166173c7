package features

import (
	"time"

	"hyper_bot/internal/models"
)

// Row — вектор фичей по одной закрытой свече. Порядок полей важен:
// он же порядок колонок в CSV (cmd/backfill) и на входе модели.
type Row struct {
	Time             time.Time
	Momentum3        float64 // close.pct_change(3)
	RangeNorm3       float64 // rolling mean(3) от range_norm
	ClosePosDelta    float64 // diff(1) позиции close внутри свечи
	VolatilityRegime float64 // ATR5 / ATR10
	ATR5Pct          float64 // ATR5 / close
	RangeNorm        float64 // (high-low)/close
	PositionClose    float64 // (close-low)/(high-low), 0.5 при нулевом range
	Open             float64
	High             float64
	Low              float64
	Close            float64
}

// warmup — первая строка, у которой заполнены все rolling-окна.
// Самое длинное окно — ATR10, значит первые 9 строк уходят как dropna.
const warmup = 9

// Columns — имена колонок в порядке Row (для дампа в CSV).
func Columns() []string {
	return []string{
		"momentum_3",
		"range_norm_3",
		"close_pos_delta",
		"volatility_regime",
		"ATR_5_pct",
		"range_norm",
		"position_close",
		"open",
		"high",
		"low",
		"close",
	}
}

// Values — значения строки в порядке Columns.
func (r Row) Values() []float64 {
	return []float64{
		r.Momentum3,
		r.RangeNorm3,
		r.ClosePosDelta,
		r.VolatilityRegime,
		r.ATR5Pct,
		r.RangeNorm,
		r.PositionClose,
		r.Open,
		r.High,
		r.Low,
		r.Close,
	}
}

// Compute строит фичи по упорядоченному ряду свечей. Чистая функция, без I/O.
// Строки прогрева (неполные окна) отбрасываются — аналог dropna.
func Compute(bars []models.Candle) []Row {
	n := len(bars)
	if n <= warmup {
		return nil
	}

	rangeNorm := make([]float64, n)
	posClose := make([]float64, n)
	tr := make([]float64, n)

	for i, b := range bars {
		rng := b.High - b.Low
		rangeNorm[i] = rng / b.Close

		if rng == 0 {
			posClose[i] = 0.5
		} else {
			posClose[i] = (b.Close - b.Low) / rng
		}

		// для первой свечи prev close нет — TR вырождается в high-low
		if i == 0 {
			tr[i] = rng
		} else {
			prev := bars[i-1].Close
			tr[i] = max3(rng, abs(b.High-prev), abs(b.Low-prev))
		}
	}

	out := make([]Row, 0, n-warmup)
	for i := warmup; i < n; i++ {
		b := bars[i]

		atr5 := mean(tr[i-4 : i+1])
		atr10 := mean(tr[i-9 : i+1])

		out = append(out, Row{
			Time:             b.Time,
			Momentum3:        b.Close/bars[i-3].Close - 1,
			RangeNorm3:       mean(rangeNorm[i-2 : i+1]),
			ClosePosDelta:    posClose[i] - posClose[i-1],
			VolatilityRegime: atr5 / atr10,
			ATR5Pct:          atr5 / b.Close,
			RangeNorm:        rangeNorm[i],
			PositionClose:    posClose[i],
			Open:             b.Open,
			High:             b.High,
			Low:              b.Low,
			Close:            b.Close,
		})
	}
	return out
}

func mean(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
