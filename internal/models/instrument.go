package models

// AssetMeta — метаданные перпа из universe Hyperliquid.
// SzDecimals задаёт лот: шаг размера = 10^-SzDecimals.
type AssetMeta struct {
	Name       string `json:"name"`
	SzDecimals int    `json:"szDecimals"`
	MaxLev     int    `json:"maxLeverage"`
}
