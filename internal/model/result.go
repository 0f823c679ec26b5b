package model

// Metrics holds the performance statistics derived from a trade ledger and
// equity curve.
type Metrics struct {
	TotalReturn    float64 // percent
	WinRate        float64 // percent of completed trades
	TotalTrades    int     // completed round trips
	WinningTrades  int
	AvgProfit      float64 // mean winning profit percent
	AvgLoss        float64 // mean losing profit percent (negative)
	ProfitFactor   float64 // +Inf when there are no losing trades
	AvgHoldingDays float64
	MaxDrawdown    float64 // percent
	Volatility     float64 // stddev of daily percent returns
	AvgDailyReturn float64 // percent
	SharpeRatio    float64
	CAGR           float64 // percent, over the actual calendar span
}

// BacktestResult is the output of a single-asset run.
type BacktestResult struct {
	Symbol    string
	Trades    []Trade
	Curve     []Snapshot
	FinalCash float64
	Completed []CompletedTrade
	Metrics   Metrics
}

// PortfolioResult is the output of a shared-pool multi-symbol run.
type PortfolioResult struct {
	InitialCapital float64
	FinalValue     float64
	TotalProfit    float64
	Symbols        []string
	Trades         []Trade
	History        []Snapshot
	Completed      []CompletedTrade
	Metrics        Metrics

	// Trade-count breakdown and position statistics.
	BuyTrades        int
	SellSignalTrades int
	SellTimeTrades   int
	SellFinalTrades  int
	AvgPositions     float64
	MaxPositionsHeld int
}
