package backtest

import (
	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
	"github.com/dev-minimalism/us-bnf-strategy/internal/signal"
)

// Simulator replays one symbol's indicator rows through the lifecycle with a
// single pooled cash balance. Buys commit the entire balance; this is a
// property of the simulated strategy, not a sizing constraint.
type Simulator struct {
	classifier     *signal.Classifier
	initialCapital float64
	maxHoldingDays int
}

// NewSimulator creates a single-asset simulator.
func NewSimulator(classifier *signal.Classifier, initialCapital float64, maxHoldingDays int) *Simulator {
	return &Simulator{
		classifier:     classifier,
		initialCapital: initialCapital,
		maxHoldingDays: maxHoldingDays,
	}
}

// Run replays the rows in ascending date order. Rows with undefined
// indicators are skipped without a state transition or equity point. Any
// open position at the end is settled at the last available close.
func (s *Simulator) Run(symbol string, rows []model.IndicatorRow) *model.BacktestResult {
	life := NewLifecycle(symbol, s.maxHoldingDays)
	cash := s.initialCapital

	var trades []model.Trade
	var curve []model.Snapshot

	for i := range rows {
		row := &rows[i]
		if !row.Valid() {
			continue
		}

		sig := s.classifier.Classify(symbol, row, life.State())

		switch {
		case sig.Buy && life.State() == model.Flat && cash > 0:
			if trade, ok := life.Buy(row.Time, row.Close, cash); ok {
				trades = append(trades, trade)
				cash = 0
			}

		case life.State() == model.Held && life.ForcedExitDue(row.Time):
			if trade, ok := life.ForceExit(row.Time, row.Close); ok {
				trades = append(trades, trade)
				cash = trade.Value
			}

		case sig.Sell && life.State() == model.Held:
			if trade, ok := life.Sell(row.Time, row.Close, model.TradeSellSignal, sig.SellReason); ok {
				trades = append(trades, trade)
				cash = trade.Value
			}
		}

		stockValue := life.Position().Shares * row.Close
		positions := 0
		if life.State() == model.Held {
			positions = 1
		}
		curve = append(curve, model.Snapshot{
			Date:       row.Time,
			Cash:       cash,
			StockValue: stockValue,
			TotalValue: cash + stockValue,
			Positions:  positions,
		})
	}

	// Final settlement of any remaining position.
	if life.State() == model.Held && len(rows) > 0 {
		last := rows[len(rows)-1]
		if trade, ok := life.Settle(last.Time, last.Close); ok {
			trades = append(trades, trade)
			cash = trade.Value
		}
	}

	completed := CompleteTrades(trades)
	return &model.BacktestResult{
		Symbol:    symbol,
		Trades:    trades,
		Curve:     curve,
		FinalCash: cash,
		Completed: completed,
		Metrics:   Compute(completed, curve, s.initialCapital, cash),
	}
}
