package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"hyper_bot/internal/helper"
	"hyper_bot/internal/models"

	"github.com/bytedance/sonic"
)

type klinesResponse struct {
	Result bool `json:"result"`
	Data   struct {
		Klines []struct {
			Time   int64  `json:"time"` // ms
			Open   string `json:"open"`
			High   string `json:"high"`
			Low    string `json:"low"`
			Close  string `json:"close"`
			Volume string `json:"volume"`
		} `json:"klines"`
	} `json:"data"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetKlines — GET /api/v1/market/klines. interval в нашем формате ("5m"),
// внутри нормализуется в биржевой ("5M"). endTime проставляем всегда —
// без него Pionex любит отдавать пустоту.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", helper.NormInterval(interval))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("endTime", strconv.FormatInt(time.Now().UnixMilli(), 10))

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/api/v1/market/klines?"+q.Encode(),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("klines build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("klines do request: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("klines http %d: %s", resp.StatusCode, string(data))
	}

	var payload klinesResponse
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("klines decode: %w", err)
	}
	if !payload.Result {
		return nil, fmt.Errorf("pionex error: code=%s msg=%s", payload.Code, payload.Message)
	}
	// пустой ответ — ошибка, а не пустой ряд: дальше по нему считают фичи
	if len(payload.Data.Klines) == 0 {
		return nil, fmt.Errorf("pionex: empty klines for %s interval=%s", symbol, interval)
	}

	bars := make([]models.Candle, 0, len(payload.Data.Klines))
	for _, k := range payload.Data.Klines {
		o, err1 := strconv.ParseFloat(k.Open, 64)
		h, err2 := strconv.ParseFloat(k.High, 64)
		l, err3 := strconv.ParseFloat(k.Low, 64)
		cl, err4 := strconv.ParseFloat(k.Close, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		if cl <= 0 {
			continue
		}
		var v float64
		if k.Volume != "" {
			v, _ = strconv.ParseFloat(k.Volume, 64)
		}

		bars = append(bars, models.Candle{
			Time:   time.UnixMilli(k.Time).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: v,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("pionex: no parsable klines for %s", symbol)
	}

	// на всякий случай сортируем по времени по возрастанию
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	return bars, nil
}
