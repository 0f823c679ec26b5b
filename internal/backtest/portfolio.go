package backtest

import (
	"errors"
	"log"
	"sort"
	"time"

	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
	"github.com/dev-minimalism/us-bnf-strategy/internal/signal"
)

// ErrNoCommonDates is returned when the participating symbols share no
// trading dates.
var ErrNoCommonDates = errors.New("no common trading dates across symbols")

// Portfolio replays many symbols in lock-step over the intersection of their
// available dates, against one shared cash pool and a bounded position map.
// The intersection calendar drops any date missing from a single symbol; a
// known limitation, so the calendar length is logged rather than hidden.
type Portfolio struct {
	classifier     *signal.Classifier
	initialCapital float64
	maxPositions   int
	maxHoldingDays int
	cashFloor      float64
}

// NewPortfolio creates a shared-pool simulator.
func NewPortfolio(classifier *signal.Classifier, initialCapital float64, maxPositions, maxHoldingDays int, cashFloor float64) *Portfolio {
	return &Portfolio{
		classifier:     classifier,
		initialCapital: initialCapital,
		maxPositions:   maxPositions,
		maxHoldingDays: maxHoldingDays,
		cashFloor:      cashFloor,
	}
}

// investmentRatio is the fixed fraction of current cash committed per
// admission.
func (p *Portfolio) investmentRatio() float64 {
	ratio := 1.0 / float64(p.maxPositions)
	if ratio > 0.2 {
		ratio = 0.2
	}
	return ratio
}

// Run executes the portfolio simulation. Dates are processed strictly in
// ascending order; within a date the fixed sequence is signal collection,
// forced time-exits, signal exits, admissions, snapshot.
func (p *Portfolio) Run(series map[string][]model.IndicatorRow) (*model.PortfolioResult, error) {
	symbols := make([]string, 0, len(series))
	for sym := range series {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	calendar, rowIndex := alignDates(series, symbols)
	if len(calendar) == 0 {
		return nil, ErrNoCommonDates
	}
	log.Printf("[INFO] portfolio calendar: %d trading days across %d symbols", len(calendar), len(symbols))

	lifecycles := make(map[string]*Lifecycle, len(symbols))
	for _, sym := range symbols {
		lifecycles[sym] = NewLifecycle(sym, p.maxHoldingDays)
	}

	cash := p.initialCapital
	var trades []model.Trade
	var history []model.Snapshot

	for _, date := range calendar {
		// 1. Collect signals against each symbol's state at the start of the date.
		signals := make(map[string]model.Signal, len(symbols))
		for _, sym := range symbols {
			row := rowIndex[sym][date]
			signals[sym] = p.classifier.Classify(sym, row, lifecycles[sym].State())
		}

		// 2. Forced time-exits, before anything else, so a symbol cannot be
		// forced out and re-admitted from stale state on the same date.
		for _, sym := range symbols {
			life := lifecycles[sym]
			if life.ForcedExitDue(date) {
				if trade, ok := life.ForceExit(date, rowIndex[sym][date].Close); ok {
					trades = append(trades, trade)
					cash += trade.Value
				}
			}
		}

		// 3. Signal-driven exits for remaining open positions.
		for _, sym := range symbols {
			life := lifecycles[sym]
			sig := signals[sym]
			if life.State() == model.Held && sig.Sell {
				if trade, ok := life.Sell(date, sig.Price, model.TradeSellSignal, sig.SellReason); ok {
					trades = append(trades, trade)
					cash += trade.Value
				}
			}
		}

		// 4. Admissions: most-oversold candidates first, while slots and cash last.
		var candidates []model.Signal
		for _, sym := range symbols {
			if signals[sym].Buy && lifecycles[sym].State() == model.Flat {
				candidates = append(candidates, signals[sym])
			}
		}
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].RSI < candidates[j].RSI })

		availableSlots := p.maxPositions - p.openPositions(lifecycles)
		if availableSlots > len(candidates) {
			availableSlots = len(candidates)
		}
		for _, sig := range candidates[:availableSlots] {
			if cash < p.cashFloor {
				break
			}
			investment := cash * p.investmentRatio()
			if investment < p.cashFloor {
				continue
			}
			if trade, ok := lifecycles[sig.Symbol].Buy(date, sig.Price, investment); ok {
				trades = append(trades, trade)
				cash -= investment
			}
		}

		// 5. Snapshot. TotalValue must equal Cash + StockValue.
		stockValue := 0.0
		for _, sym := range symbols {
			pos := lifecycles[sym].Position()
			if pos.State == model.Held {
				stockValue += pos.Shares * rowIndex[sym][date].Close
			}
		}
		history = append(history, model.Snapshot{
			Date:       date,
			Cash:       cash,
			StockValue: stockValue,
			TotalValue: cash + stockValue,
			Positions:  p.openPositions(lifecycles),
		})
	}

	// Final settlement at each symbol's last available price.
	finalDate := calendar[len(calendar)-1]
	for _, sym := range symbols {
		life := lifecycles[sym]
		if life.State() == model.Held {
			if trade, ok := life.Settle(finalDate, rowIndex[sym][finalDate].Close); ok {
				trades = append(trades, trade)
				cash += trade.Value
			}
		}
	}

	completed := CompleteTrades(trades)
	result := &model.PortfolioResult{
		InitialCapital: p.initialCapital,
		FinalValue:     cash,
		TotalProfit:    cash - p.initialCapital,
		Symbols:        symbols,
		Trades:         trades,
		History:        history,
		Completed:      completed,
		Metrics:        Compute(completed, history, p.initialCapital, cash),
	}
	for _, t := range trades {
		switch t.Action {
		case model.TradeBuy:
			result.BuyTrades++
		case model.TradeSellSignal:
			result.SellSignalTrades++
		case model.TradeSellTime:
			result.SellTimeTrades++
		case model.TradeSellFinal:
			result.SellFinalTrades++
		}
	}
	var positionsSum int
	for _, snap := range history {
		positionsSum += snap.Positions
		if snap.Positions > result.MaxPositionsHeld {
			result.MaxPositionsHeld = snap.Positions
		}
	}
	result.AvgPositions = float64(positionsSum) / float64(len(history))

	return result, nil
}

func (p *Portfolio) openPositions(lifecycles map[string]*Lifecycle) int {
	open := 0
	for _, life := range lifecycles {
		if life.State() == model.Held {
			open++
		}
	}
	return open
}

// alignDates builds the sorted intersection of all symbols' dates plus a
// per-symbol row lookup keyed by date.
func alignDates(series map[string][]model.IndicatorRow, symbols []string) ([]time.Time, map[string]map[time.Time]*model.IndicatorRow) {
	rowIndex := make(map[string]map[time.Time]*model.IndicatorRow, len(symbols))
	for _, sym := range symbols {
		rows := series[sym]
		idx := make(map[time.Time]*model.IndicatorRow, len(rows))
		for i := range rows {
			idx[dayOf(rows[i].Time)] = &rows[i]
		}
		rowIndex[sym] = idx
	}

	var calendar []time.Time
	if len(symbols) == 0 {
		return nil, rowIndex
	}
	for date := range rowIndex[symbols[0]] {
		inAll := true
		for _, sym := range symbols[1:] {
			if _, ok := rowIndex[sym][date]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			calendar = append(calendar, date)
		}
	}
	sort.Slice(calendar, func(i, j int) bool { return calendar[i].Before(calendar[j]) })
	return calendar, rowIndex
}

// dayOf truncates a bar timestamp to midnight UTC so identical trading days
// from different providers align.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
