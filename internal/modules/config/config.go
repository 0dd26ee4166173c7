package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	privateKeyENV     = "HYPERLIQUID_PRIVATE_KEY"
	accountAddressENV = "HYPERLIQUID_ACCOUNT_ADDRESS"
	apiURLENV         = "HYPERLIQUID_API_URL"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	Hyperliquid struct {
		APIURL  string `yaml:"api_url"`
		WSURL   string `yaml:"ws_url"`
		Address string `yaml:"address"`
		// Секрет агент-кошелька берём только из env, в yaml не кладём.
		PrivateKey string `yaml:"-"`
	} `yaml:"hyperliquid"`

	Pionex struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"pionex"`

	Trading struct {
		Coin     string `yaml:"coin"`     // перп Hyperliquid: "BTC", "ETH", ...
		Symbol   string `yaml:"symbol"`   // пара Pionex: "BTC_USDT_PERP"
		Interval string `yaml:"interval"` // "5m" и т.п., нормализуется в "5M"

		NotionalUSDC float64 `yaml:"notional_usdc"`
		Leverage     int     `yaml:"leverage"`

		// Доли, не проценты: 0.01 => 1%
		TakeProfitPct float64 `yaml:"take_profit_pct"`
		StopLossPct   float64 `yaml:"stop_loss_pct"`
		Slippage      float64 `yaml:"slippage"`

		CandleLimit     int           `yaml:"candle_limit"`
		PollInterval    time.Duration `yaml:"poll_interval"`
		PositionRefresh time.Duration `yaml:"position_refresh"`
	} `yaml:"trading"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	config := Config{}
	config.Hyperliquid.APIURL = "https://api.hyperliquid.xyz"
	config.Hyperliquid.WSURL = "wss://api.hyperliquid.xyz/ws"
	config.Pionex.BaseURL = "https://api.pionex.com"
	config.Trading.Coin = getenvDefault("COIN", "BTC")
	config.Trading.Symbol = getenvDefault("SYMBOL", "BTC_USDT_PERP")
	config.Trading.Interval = getenvDefault("TIMEFRAME", "5m")
	config.Trading.NotionalUSDC = floatFromEnv("NOTIONAL_USDC", 50)
	config.Trading.Leverage = intFromEnv("LEVERAGE", 3)
	config.Trading.TakeProfitPct = floatFromEnv("TP_PCT", 0.01)
	config.Trading.StopLossPct = floatFromEnv("SL_PCT", 0.002)
	config.Trading.Slippage = floatFromEnv("SLIPPAGE", 0.01)
	config.Trading.CandleLimit = intFromEnv("CANDLE_LIMIT", 100)
	config.Trading.PollInterval = durationFromEnv("POLL_INTERVAL", "30s")
	config.Trading.PositionRefresh = durationFromEnv("POSITION_REFRESH", "15s")
	config.Health.Addr = ":8080"

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	// yaml опционален: без файла живём на дефолтах + env
	if file, err := os.Open("configs/" + configFileName); err == nil {
		err = yaml.NewDecoder(file).Decode(&config)
		_ = file.Close()
		if err != nil {
			return nil, fmt.Errorf("decode config file: %w", err)
		}
	}

	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if chat := os.Getenv("TELEGRAM_CHAT_ID"); chat != "" {
		if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.DB = dsn
	}
	if url := os.Getenv(apiURLENV); url != "" {
		config.Hyperliquid.APIURL = url
	}
	if addr := os.Getenv(accountAddressENV); addr != "" {
		config.Hyperliquid.Address = addr
	}

	// ключ либо в HYPERLIQUID_PRIVATE_KEY, либо в HYPERLIQUID_SECRET_KEY
	priv := os.Getenv(privateKeyENV)
	if priv == "" {
		priv = os.Getenv("HYPERLIQUID_SECRET_KEY")
	}
	if priv != "" && !strings.HasPrefix(priv, "0x") {
		priv = "0x" + priv
	}
	config.Hyperliquid.PrivateKey = priv

	if config.Trading.TakeProfitPct <= 0 || config.Trading.StopLossPct <= 0 {
		return nil, fmt.Errorf("tp/sl pct must be > 0")
	}
	if config.Trading.Slippage < 0 {
		return nil, fmt.Errorf("slippage must be >= 0")
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
