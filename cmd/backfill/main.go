package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"hyper_bot/internal/features"
	"hyper_bot/internal/modules/config"
	"hyper_bot/internal/modules/pionex/service"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// backfill — офлайн-утилита: тянет свечи с Pionex и выгружает фичи в CSV
// (колонки в том порядке, который ждёт модель).
//
// Настройки через env/флаги viper: BACKFILL_SYMBOL, BACKFILL_INTERVAL,
// BACKFILL_LIMIT, BACKFILL_OUT.
func main() {
	v := viper.New()
	v.SetEnvPrefix("backfill")
	v.AutomaticEnv()
	v.SetDefault("symbol", "BTC_USDT_PERP")
	v.SetDefault("interval", "5m")
	v.SetDefault("limit", 500)
	v.SetDefault("out", "features.csv")
	v.SetDefault("base_url", "https://api.pionex.com")

	if err := run(v); err != nil {
		fmt.Fprintf(os.Stderr, "backfill: %v\n", err)
		os.Exit(1)
	}
}

func run(v *viper.Viper) error {
	cfg := &config.Config{}
	cfg.Pionex.BaseURL = v.GetString("base_url")

	client := service.NewClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bars, err := client.GetKlines(ctx, v.GetString("symbol"), v.GetString("interval"), v.GetInt("limit"))
	if err != nil {
		return errors.Wrap(err, "get klines")
	}

	rows := features.Compute(bars)
	if len(rows) == 0 {
		return errors.Errorf("not enough bars for features: %d", len(bars))
	}

	out, err := os.Create(v.GetString("out"))
	if err != nil {
		return errors.Wrap(err, "create out file")
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(append([]string{"timestamp"}, features.Columns()...)); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, r := range rows {
		rec := make([]string, 0, len(features.Columns())+1)
		rec = append(rec, r.Time.UTC().Format(time.RFC3339))
		for _, val := range r.Values() {
			rec = append(rec, strconv.FormatFloat(val, 'f', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}

	fmt.Printf("wrote %d rows (%s %s) -> %s\n",
		len(rows), v.GetString("symbol"), v.GetString("interval"), v.GetString("out"))
	return nil
}
