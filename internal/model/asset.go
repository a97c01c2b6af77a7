package model

import "strings"

// AssetClass selects the data provider for an instrument.
type AssetClass string

const (
	ClassEquity AssetClass = "equity"
	ClassMacro  AssetClass = "macro"
	ClassCrypto AssetClass = "crypto"
)

// AssetGroup decides where an analysis lands in the market brief.
type AssetGroup string

const (
	GroupMacro AssetGroup = "macro"
	GroupTrade AssetGroup = "trade"
)

// Asset maps a human-facing name to the provider ticker that is fetched.
type Asset struct {
	Name   string
	Ticker string
	Class  AssetClass
	Group  AssetGroup
}

// IsCryptoSymbol reports whether a symbol looks like a crypto pair (BTC/USDT).
func IsCryptoSymbol(symbol string) bool {
	return !strings.HasPrefix(symbol, "^") && strings.Contains(symbol, "/")
}

// ClassOf infers the asset class from the ticker shape.
func ClassOf(ticker string) AssetClass {
	if IsCryptoSymbol(ticker) {
		return ClassCrypto
	}
	return ClassEquity
}

// ResolveAsset looks a name up in the table, falling back to treating the
// name as its own ticker.
func ResolveAsset(table []Asset, name string) Asset {
	for _, a := range table {
		if strings.EqualFold(a.Name, name) || a.Ticker == name {
			return a
		}
	}
	return Asset{Name: name, Ticker: name, Class: ClassOf(name), Group: GroupTrade}
}
