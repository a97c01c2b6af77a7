package cache

import (
	"strings"
	"unicode"

	"MarketBrief/internal/model"
)

// NormalizeSymbol strips the characters that are unsafe in storage keys
// (/ ^ = - and whitespace). BTC/USDT becomes BTCUSDT, ^VIX becomes VIX.
func NormalizeSymbol(symbol string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '^', r == '=', r == '-', unicode.IsSpace(r):
			return -1
		}
		return r
	}, symbol)
}

// Key is the storage key of one (symbol, timeframe) entry, e.g. BTCUSDT__1d.
func Key(symbol string, tf model.Timeframe) string {
	return NormalizeSymbol(symbol) + "__" + string(tf)
}
