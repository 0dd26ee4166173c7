package health

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счётчики ордеров и последний mid — минимум, по которому видно,
// что бот жив и торгует.
var (
	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hyper_bot_orders_placed_total",
		Help: "Orders submitted to the exchange by kind (entry/close/tp/sl).",
	}, []string{"kind"})

	LastMid = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hyper_bot_last_mid_price",
		Help: "Last observed mid price per coin.",
	}, []string{"coin"})

	CandlesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hyper_bot_candles_fetched_total",
		Help: "Candles fetched from the market data source.",
	})
)
