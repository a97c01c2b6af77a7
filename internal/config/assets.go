package config

// DefaultAssets is the asset table used when the config lists none.
func DefaultAssets() []AssetConfig {
	return []AssetConfig{
		{Name: "VIX", Ticker: "^VIX", Class: "macro", Group: "macro"},
		{Name: "QQQ", Ticker: "QQQ", Class: "macro", Group: "macro"},
		{Name: "US10Y", Ticker: "^TNX", Class: "macro", Group: "macro"},
		{Name: "US02Y", Ticker: "^IRX", Class: "macro", Group: "macro"},
		{Name: "US30Y", Ticker: "^TYX", Class: "macro", Group: "macro"},
		{Name: "GOLD", Ticker: "GC=F", Class: "macro", Group: "macro"},
		{Name: "SILVER", Ticker: "SI=F", Class: "macro", Group: "macro"},
		{Name: "OIL_CRUD", Ticker: "CL=F", Class: "macro", Group: "macro"},
		{Name: "SPX", Ticker: "^GSPC", Class: "macro", Group: "macro"},

		{Name: "AAPL", Ticker: "AAPL", Class: "equity", Group: "trade"},
		{Name: "MSFT", Ticker: "MSFT", Class: "equity", Group: "trade"},
		{Name: "NVDA", Ticker: "NVDA", Class: "equity", Group: "trade"},
		{Name: "TSM", Ticker: "TSM", Class: "equity", Group: "trade"},
		{Name: "GOOGL", Ticker: "GOOGL", Class: "equity", Group: "trade"},
		{Name: "BTC/USDT", Ticker: "BTC/USDT", Class: "crypto", Group: "trade"},
		{Name: "SOL/USDT", Ticker: "SOL/USDT", Class: "crypto", Group: "trade"},
		{Name: "SOL/BTC", Ticker: "SOL/BTC", Class: "crypto", Group: "trade"},
		{Name: "ETH/USDT", Ticker: "ETH/USDT", Class: "crypto", Group: "trade"},
	}
}
