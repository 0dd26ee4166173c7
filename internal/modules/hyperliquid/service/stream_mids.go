package service

import (
	"context"
	"strconv"
	"time"

	"hyper_bot/pkg/logger"

	"github.com/bytedance/sonic"
)

// StreamMids — WS-подписка на allMids с реконнектом. Обновляет кэш mid-ов
// клиента; onTick (опционально) дёргается на каждый принятый кадр.
func (c *Client) StreamMids(ctx context.Context, onTick func(time.Time)) {
	sub := map[string]any{
		"method": "subscribe",
		"subscription": map[string]string{
			"type": "allMids",
		},
	}

	for {
		logger.Info("[WS] mids connect %s", c.wsURL)
		conn, _, err := c.dialer.Dial(c.wsURL, nil)
		if err != nil {
			logger.Error("[WS] mids dial error: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
				continue
			}
		}

		if err := conn.WriteJSON(sub); err != nil {
			logger.Error("[WS] mids subscribe error: %v", err)
			_ = conn.Close()
			continue
		}

		// keepalive: биржа закрывает молчащие соединения
		stopPing := make(chan struct{})
		go func() {
			t := time.NewTicker(30 * time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-stopPing:
					return
				case <-t.C:
					_ = conn.WriteJSON(map[string]string{"method": "ping"})
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Error("[WS] mids read error: %v", err)
				close(stopPing)
				_ = conn.Close()
				break
			}

			var frame struct {
				Channel string `json:"channel"`
				Data    struct {
					Mids map[string]string `json:"mids"`
				} `json:"data"`
			}
			if err := sonic.Unmarshal(msg, &frame); err != nil {
				continue
			}
			if frame.Channel != "allMids" || len(frame.Data.Mids) == 0 {
				continue
			}

			c.midMu.Lock()
			for coin, s := range frame.Data.Mids {
				if px, err := strconv.ParseFloat(s, 64); err == nil && px > 0 {
					c.mids[coin] = px
				}
			}
			c.midMu.Unlock()

			if onTick != nil {
				onTick(time.Now())
			}
		}

		select {
		case <-ctx.Done():
			return
		default:
			time.Sleep(time.Second)
		}
	}
}
