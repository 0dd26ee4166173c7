package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"hyper_bot/internal/models"

	"github.com/bytedance/sonic"
)

// postInfo — общий POST /info. Тело ответа отдаём как есть, декодирует вызывающий.
func (c *Client) postInfo(ctx context.Context, payload map[string]string) ([]byte, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("info marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/info", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("info new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("info do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("info http %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

// AssetMetas — снапшот universe. Кэшируется на весь процесс: лоты меняются
// реже, чем живёт бот.
func (c *Client) AssetMetas(ctx context.Context) ([]models.AssetMeta, error) {
	c.metaMu.Lock()
	defer c.metaMu.Unlock()

	if c.universe != nil {
		return c.universe, nil
	}

	data, err := c.postInfo(ctx, map[string]string{"type": "meta"})
	if err != nil {
		return nil, err
	}

	var meta metaResponse
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("meta decode: %w", err)
	}
	if len(meta.Universe) == 0 {
		return nil, fmt.Errorf("meta: empty universe")
	}

	c.universe = meta.Universe
	c.assetIdx = make(map[string]int, len(meta.Universe))
	for i, m := range meta.Universe {
		c.assetIdx[m.Name] = i
	}
	return c.universe, nil
}

// assetIndex — индекс монеты в universe; он же asset id в exchange-actions.
func (c *Client) assetIndex(ctx context.Context, coin string) (int, error) {
	if _, err := c.AssetMetas(ctx); err != nil {
		return 0, err
	}

	c.metaMu.Lock()
	idx, ok := c.assetIdx[coin]
	c.metaMu.Unlock()
	if !ok {
		return 0, fmt.Errorf("asset %s not found in universe", coin)
	}
	return idx, nil
}

// AllMids — все mid-цены одним запросом.
func (c *Client) AllMids(ctx context.Context) (map[string]float64, error) {
	data, err := c.postInfo(ctx, map[string]string{"type": "allMids"})
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("allMids decode: %w", err)
	}

	mids := make(map[string]float64, len(raw))
	for coin, s := range raw {
		px, err := strconv.ParseFloat(s, 64)
		if err != nil || px <= 0 {
			continue
		}
		mids[coin] = px
	}
	return mids, nil
}

// MidPrice — mid по монете: сперва из WS-кэша, иначе REST.
func (c *Client) MidPrice(ctx context.Context, coin string) (float64, error) {
	c.midMu.RLock()
	px, ok := c.mids[coin]
	c.midMu.RUnlock()
	if ok && px > 0 {
		return px, nil
	}

	mids, err := c.AllMids(ctx)
	if err != nil {
		return 0, err
	}
	px, ok = mids[coin]
	if !ok || px <= 0 {
		return 0, fmt.Errorf("%w: no mid for %s", models.ErrPriceUnavailable, coin)
	}
	return px, nil
}
