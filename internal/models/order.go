package models

// TriggerKind — какой ногой брекета является триггер-ордер.
const (
	TpslTakeProfit = "tp"
	TpslStopLoss   = "sl"
)

// GroupingPositionTpsl — биржа ведёт пару TP/SL как один брекет на позицию.
const GroupingPositionTpsl = "positionTpsl"

// TriggerSpec — условная часть ордера: цена активации и нога tp/sl.
// IsMarket=true — после срабатывания исполняемся по рынку (limit_px как защита).
type TriggerSpec struct {
	TriggerPx float64
	IsMarket  bool
	Tpsl      string // "tp" / "sl"
}

// OrderRequest — дескриптор ордера для submission sink (Hyperliquid /exchange).
// Trigger == nil — обычный лимитник (открытие/закрытие по рынку через IOC).
type OrderRequest struct {
	Coin       string
	IsBuy      bool
	Sz         float64
	LimitPx    float64
	Trigger    *TriggerSpec
	ReduceOnly bool
	Cloid      string
}

// BracketSpec — результат построителя брекета: ровно две ноги,
// одинаковые сторона и размер, обе reduce-only.
type BracketSpec struct {
	TakeProfit OrderRequest
	StopLoss   OrderRequest
}

func (b *BracketSpec) Orders() []OrderRequest {
	return []OrderRequest{b.TakeProfit, b.StopLoss}
}
