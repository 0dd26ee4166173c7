package service

import (
	"net/http"
	"time"

	"hyper_bot/internal/modules/config"
)

// Client — публичный REST Pionex, только маркет-дата. Ключи не нужны.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.Pionex.BaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}
