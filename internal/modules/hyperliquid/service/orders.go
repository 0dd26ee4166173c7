package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"hyper_bot/internal/models"

	"github.com/bytedance/sonic"
)

// BulkOrders отправляет пачку ордеров одним action. grouping="positionTpsl"
// говорит бирже вести пару как TP/SL одной позиции, "na" — независимые ордера.
func (c *Client) BulkOrders(ctx context.Context, orders []models.OrderRequest, grouping string) error {
	if len(orders) == 0 {
		return fmt.Errorf("BulkOrders: empty orders")
	}
	if grouping == "" {
		grouping = "na"
	}

	wire := make([]wireOrder, 0, len(orders))
	for _, o := range orders {
		if o.Sz <= 0 {
			return fmt.Errorf("BulkOrders %s: %w: sz=%.10f", o.Coin, models.ErrInvalidInput, o.Sz)
		}
		if o.LimitPx <= 0 {
			return fmt.Errorf("BulkOrders %s: %w: limitPx=%.10f", o.Coin, models.ErrInvalidInput, o.LimitPx)
		}

		idx, err := c.assetIndex(ctx, o.Coin)
		if err != nil {
			return err
		}

		w := wireOrder{
			Asset:      idx,
			IsBuy:      o.IsBuy,
			Price:      formatPrice(o.LimitPx),
			Size:       formatSize(o.Sz),
			ReduceOnly: o.ReduceOnly,
			Cloid:      o.Cloid,
		}
		if o.Trigger != nil {
			w.Type = wireOrderType{Trigger: &wireTrigger{
				IsMarket:  o.Trigger.IsMarket,
				TriggerPx: formatPrice(o.Trigger.TriggerPx),
				Tpsl:      o.Trigger.Tpsl,
			}}
		} else {
			// "маркет" = агрессивный лимит IOC, цену даёт вызывающий
			w.Type = wireOrderType{Limit: &wireLimit{Tif: "Ioc"}}
		}
		wire = append(wire, w)
	}

	return c.postAction(ctx, orderAction{
		Type:     "order",
		Orders:   wire,
		Grouping: grouping,
	})
}

// UpdateIsolatedLeverage выставляет изолированное плечо по монете.
func (c *Client) UpdateIsolatedLeverage(ctx context.Context, coin string, leverage int) error {
	if leverage <= 0 {
		return fmt.Errorf("UpdateIsolatedLeverage: %w: leverage=%d", models.ErrInvalidInput, leverage)
	}

	idx, err := c.assetIndex(ctx, coin)
	if err != nil {
		return err
	}

	return c.postAction(ctx, leverageAction{
		Type:     "updateLeverage",
		Asset:    idx,
		IsCross:  false, // только изолированная маржа
		Leverage: leverage,
	})
}

// postAction — подпись и отправка exchange-action. Ретраев нет намеренно:
// повтор на order-пути — это риск задвоить ордер.
func (c *Client) postAction(ctx context.Context, action any) error {
	rawAction, err := sonic.Marshal(action)
	if err != nil {
		return fmt.Errorf("action marshal: %w", err)
	}

	nonce := time.Now().UnixMilli()
	sig, err := c.signer.Sign(rawAction, nonce)
	if err != nil {
		return fmt.Errorf("action sign: %w", err)
	}

	payload, err := sonic.Marshal(exchangeRequest{
		Action:    action,
		Nonce:     nonce,
		Signature: sig,
	})
	if err != nil {
		return fmt.Errorf("request marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/exchange", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("exchange new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("exchange do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("exchange http %d: %s", resp.StatusCode, string(data))
	}

	var r exchangeResponse
	if err := sonic.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("exchange decode: %w; body=%s", err, string(data))
	}
	if r.Status != "ok" {
		return fmt.Errorf("exchange rejected: %s", string(data))
	}
	for _, st := range r.Response.Data.Statuses {
		if st.Error != "" {
			return fmt.Errorf("order rejected: %s", st.Error)
		}
	}
	return nil
}

// Биржа ждёт цены/размеры строками без экспоненты и хвостовых нулей.
func formatPrice(px float64) string {
	return strconv.FormatFloat(px, 'f', -1, 64)
}

func formatSize(sz float64) string {
	return strconv.FormatFloat(sz, 'f', -1, 64)
}
