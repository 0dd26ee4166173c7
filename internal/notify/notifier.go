package notify

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"hyper_bot/internal/models"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// PositionsSource — откуда брать открытые позиции для /positions.
type PositionsSource interface {
	OpenPositions(ctx context.Context) ([]models.CachedPos, error)
}

// Trader — ручное управление движком из чата.
type Trader interface {
	OpenLong(ctx context.Context, coin string, notionalUSDC float64) error
	ClosePosition(ctx context.Context, coin string) error
	ProtectPosition(ctx context.Context, coin string) error
}

// Telegram — нотифайер + несколько команд ручного управления.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64

	positions PositionsSource
	trader    Trader
}

func NewTelegram(token string, chatID int64, positions PositionsSource, trader Trader) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:       b,
		chatID:    chatID,
		positions: positions,
		trader:    trader,
	}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// /positions — открытые позиции на Hyperliquid
func (t *Telegram) handlePositions(ctx context.Context) {
	positions, err := t.positions.OpenPositions(ctx)
	if err != nil {
		t.Sendf("❗️ Ошибка получения позиций: %v", err)
		return
	}
	if len(positions) == 0 {
		t.Send("📭 Открытых позиций нет")
		return
	}

	var b strings.Builder
	b.WriteString("📊 Открытые позиции:\n")
	for _, p := range positions {
		side := "LONG"
		if p.Szi < 0 {
			side = "SHORT"
		}
		fmt.Fprintf(&b, "- %s [%s] sz=%.6f @ %.4f last=%.4f\n",
			p.Coin, side, p.Szi, p.Entry, p.LastPx)
	}
	t.Send(b.String())
}

func (t *Telegram) handleLong(ctx context.Context, args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		t.Send("Формат: /long COIN NOTIONAL_USDC")
		return
	}
	notional, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || notional <= 0 {
		t.Sendf("Некорректный нотионал: %q", fields[1])
		return
	}
	if err := t.trader.OpenLong(ctx, strings.ToUpper(fields[0]), notional); err != nil {
		t.Sendf("❗️ OpenLong: %v", err)
	}
}

func (t *Telegram) handleClose(ctx context.Context, args string) {
	fields := strings.Fields(args)
	if len(fields) < 1 {
		t.Send("Формат: /close COIN")
		return
	}
	if err := t.trader.ClosePosition(ctx, strings.ToUpper(fields[0])); err != nil {
		t.Sendf("❗️ ClosePosition: %v", err)
	}
}

func (t *Telegram) handleProtect(ctx context.Context, args string) {
	fields := strings.Fields(args)
	if len(fields) < 1 {
		t.Send("Формат: /protect COIN")
		return
	}
	if err := t.trader.ProtectPosition(ctx, strings.ToUpper(fields[0])); err != nil {
		t.Sendf("❗️ ProtectPosition: %v", err)
	}
}

// Start: long-polling для команд.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}

				args := upd.Message.CommandArguments()
				switch upd.Message.Command() {
				case "positions":
					go t.handlePositions(ctx)
				case "long":
					go t.handleLong(ctx, args)
				case "close":
					go t.handleClose(ctx, args)
				case "protect":
					go t.handleProtect(ctx, args)
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() {}

// Stdout — заглушка без телеграма, просто пишет в лог.
type Stdout struct{}

func NewStdout() *Stdout                           { return &Stdout{} }
func (s *Stdout) Send(msg string)                  { log.Println(msg) }
func (s *Stdout) Sendf(format string, args ...any) { log.Printf(format, args...) }
