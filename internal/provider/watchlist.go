package provider

// DefaultWatchlist is the top-50 US large-cap universe the strategy scans.
var DefaultWatchlist = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "BRK-B", "AVGO", "LLY",
	"JPM", "UNH", "XOM", "V", "PG", "JNJ", "MA", "HD", "CVX", "MRK",
	"ABBV", "KO", "ADBE", "PEP", "COST", "WMT", "BAC", "CRM", "TMO", "NFLX",
	"ACN", "LIN", "MCD", "ABT", "CSCO", "AMD", "PM", "TXN", "DHR", "DIS",
	"INTC", "VZ", "WFC", "COP", "BMY", "NOW", "CAT", "NEE", "UPS", "RTX",
}
