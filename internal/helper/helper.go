package helper

import "strings"

// NormInterval приводит таймфрейм к формату Pionex:
// "5m" -> "5M", "1h" -> "60M", "4h" -> "4H", "1d" -> "1D".
func NormInterval(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "candle")
	switch s {
	case "1m":
		return "1M"
	case "5m":
		return "5M"
	case "15m":
		return "15M"
	case "30m":
		return "30M"
	case "60m", "1h":
		return "60M"
	case "4h":
		return "4H"
	case "8h":
		return "8H"
	case "12h":
		return "12H"
	case "1d":
		return "1D"
	default:
		return strings.ToUpper(s)
	}
}
