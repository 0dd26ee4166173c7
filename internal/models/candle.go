package models

import "time"

// Candle — закрытая свеча OHLCV (Pionex klines, время уже нормализовано в UTC).
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
