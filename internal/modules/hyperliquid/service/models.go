package service

import "hyper_bot/internal/models"

type metaResponse struct {
	Universe []models.AssetMeta `json:"universe"`
}

type clearinghouseResponse struct {
	AssetPositions []struct {
		Position struct {
			Coin     string `json:"coin"`
			Szi      string `json:"szi"`
			EntryPx  string `json:"entryPx"`
			Leverage struct {
				Type  string `json:"type"`
				Value int    `json:"value"`
			} `json:"leverage"`
		} `json:"position"`
	} `json:"assetPositions"`
}

// wire-формат ордера для action type=order.
type wireOrder struct {
	Asset      int           `json:"a"`
	IsBuy      bool          `json:"b"`
	Price      string        `json:"p"`
	Size       string        `json:"s"`
	ReduceOnly bool          `json:"r"`
	Type       wireOrderType `json:"t"`
	Cloid      string        `json:"c,omitempty"`
}

type wireOrderType struct {
	Limit   *wireLimit   `json:"limit,omitempty"`
	Trigger *wireTrigger `json:"trigger,omitempty"`
}

type wireLimit struct {
	Tif string `json:"tif"` // "Ioc" / "Gtc" / "Alo"
}

type wireTrigger struct {
	IsMarket  bool   `json:"isMarket"`
	TriggerPx string `json:"triggerPx"`
	Tpsl      string `json:"tpsl"` // "tp" / "sl"
}

type orderAction struct {
	Type     string      `json:"type"` // "order"
	Orders   []wireOrder `json:"orders"`
	Grouping string      `json:"grouping"` // "na" / "positionTpsl"
}

type leverageAction struct {
	Type     string `json:"type"` // "updateLeverage"
	Asset    int    `json:"asset"`
	IsCross  bool   `json:"isCross"`
	Leverage int    `json:"leverage"`
}

type exchangeRequest struct {
	Action    any       `json:"action"`
	Nonce     int64     `json:"nonce"`
	Signature Signature `json:"signature"`
}

type exchangeResponse struct {
	Status   string `json:"status"` // "ok" / "err"
	Response struct {
		Type string `json:"type"`
		Data struct {
			Statuses []struct {
				Error   string `json:"error,omitempty"`
				Resting *struct {
					Oid int64 `json:"oid"`
				} `json:"resting,omitempty"`
				Filled *struct {
					Oid     int64  `json:"oid"`
					TotalSz string `json:"totalSz"`
					AvgPx   string `json:"avgPx"`
				} `json:"filled,omitempty"`
			} `json:"statuses"`
		} `json:"data"`
	} `json:"response"`
}
