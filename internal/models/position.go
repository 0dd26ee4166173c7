package models

import "time"

// PositionSnapshot — свежий срез открытой позиции из clearinghouseState.
// Szi со знаком: >0 лонг, <0 шорт. Не кэшируем — между вызовами может измениться.
type PositionSnapshot struct {
	Coin     string
	Szi      float64
	EntryPx  float64
	Leverage int
}

func (p *PositionSnapshot) IsLong() bool { return p.Szi > 0 }

type PosKey struct {
	Coin string
}

// CachedPos — позиция в кэше воркера RefreshPositions (для /positions и health).
type CachedPos struct {
	Coin      string
	Szi       float64
	Entry     float64
	LastPx    float64
	UpdatedAt time.Time
}
