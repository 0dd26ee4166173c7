package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"hyper_bot/internal/models"

	"github.com/bytedance/sonic"
)

// Position — свежий срез позиции по монете. nil, nil — позиции нет.
// Никогда не кэшируется: между вызовами позиция могла измениться.
func (c *Client) Position(ctx context.Context, coin string) (*models.PositionSnapshot, error) {
	data, err := c.postInfo(ctx, map[string]string{
		"type": "clearinghouseState",
		"user": c.address,
	})
	if err != nil {
		return nil, err
	}

	var state clearinghouseResponse
	if err := unmarshalState(data, &state); err != nil {
		return nil, err
	}

	for _, ap := range state.AssetPositions {
		p := ap.Position
		if p.Coin != coin {
			continue
		}
		szi, _ := strconv.ParseFloat(p.Szi, 64)
		if math.Abs(szi) == 0 {
			continue
		}
		entry, _ := strconv.ParseFloat(p.EntryPx, 64)
		return &models.PositionSnapshot{
			Coin:     coin,
			Szi:      szi,
			EntryPx:  entry,
			Leverage: p.Leverage.Value,
		}, nil
	}
	return nil, nil
}

// OpenPositions — все открытые позиции аккаунта (для /positions и кэша воркера).
func (c *Client) OpenPositions(ctx context.Context) ([]models.CachedPos, error) {
	data, err := c.postInfo(ctx, map[string]string{
		"type": "clearinghouseState",
		"user": c.address,
	})
	if err != nil {
		return nil, err
	}

	var state clearinghouseResponse
	if err := unmarshalState(data, &state); err != nil {
		return nil, err
	}

	now := time.Now()
	res := make([]models.CachedPos, 0, len(state.AssetPositions))
	for _, ap := range state.AssetPositions {
		p := ap.Position
		szi, _ := strconv.ParseFloat(p.Szi, 64)
		if math.Abs(szi) == 0 {
			continue
		}
		entry, _ := strconv.ParseFloat(p.EntryPx, 64)

		last, _ := c.MidPrice(ctx, p.Coin) // best effort, 0 если нет котировки

		res = append(res, models.CachedPos{
			Coin:      p.Coin,
			Szi:       szi,
			Entry:     entry,
			LastPx:    last,
			UpdatedAt: now,
		})
	}
	return res, nil
}

func unmarshalState(data []byte, state *clearinghouseResponse) error {
	if err := sonic.Unmarshal(data, state); err != nil {
		return fmt.Errorf("clearinghouseState decode: %w", err)
	}
	return nil
}
