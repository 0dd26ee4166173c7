package service

import (
	"net/http"
	"sync"
	"time"

	"hyper_bot/internal/models"
	"hyper_bot/internal/modules/config"

	"github.com/gorilla/websocket"
)

// Client — минимальный REST/WS клиент Hyperliquid (перпы):
// info-эндпоинты (meta / allMids / clearinghouseState) и exchange-actions
// (order / updateLeverage). Подпись экшенов делегирована Signer.
type Client struct {
	cfg    *config.Config
	http   *http.Client
	dialer *websocket.Dialer

	apiURL  string
	wsURL   string
	address string
	signer  Signer

	// кэш universe: тянем один раз за жизнь процесса
	metaMu   sync.Mutex
	universe []models.AssetMeta
	assetIdx map[string]int

	// последние mid-ы из WS-стрима
	midMu sync.RWMutex
	mids  map[string]float64
}

func NewClient(cfg *config.Config, signer Signer) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 10 * time.Second},
		dialer:  &websocket.Dialer{},
		apiURL:  cfg.Hyperliquid.APIURL,
		wsURL:   cfg.Hyperliquid.WSURL,
		address: cfg.Hyperliquid.Address,
		signer:  signer,
		mids:    make(map[string]float64),
	}
}
