// Package backtest replays indicator series through the position lifecycle
// and derives performance statistics. The simulation core is deterministic
// and does no I/O.
package backtest

import (
	"fmt"
	"time"

	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

// Lifecycle is the per-symbol Flat/Held state machine. Signals arriving in
// the wrong state are no-ops; the time-based forced exit overrides signal
// absence.
type Lifecycle struct {
	pos            model.Position
	maxHoldingDays int
}

// NewLifecycle creates a Flat lifecycle for one symbol.
func NewLifecycle(symbol string, maxHoldingDays int) *Lifecycle {
	return &Lifecycle{
		pos:            model.Position{Symbol: symbol, State: model.Flat},
		maxHoldingDays: maxHoldingDays,
	}
}

// State returns the current position state.
func (l *Lifecycle) State() model.PositionState {
	return l.pos.State
}

// Position returns a copy of the current position.
func (l *Lifecycle) Position() model.Position {
	return l.pos
}

// DaysHeld returns the calendar days since entry, 0 when Flat.
func (l *Lifecycle) DaysHeld(now time.Time) int {
	return l.pos.DaysHeld(now)
}

// ForcedExitDue reports whether the holding period has reached the limit.
func (l *Lifecycle) ForcedExitDue(now time.Time) bool {
	return l.pos.State == model.Held && l.pos.DaysHeld(now) >= l.maxHoldingDays
}

// Buy transitions Flat -> Held, committing the given cash at price. Returns
// false without a transition when already Held or no cash is available.
func (l *Lifecycle) Buy(date time.Time, price, cash float64) (model.Trade, bool) {
	if l.pos.State != model.Flat || cash <= 0 || price <= 0 {
		return model.Trade{}, false
	}
	shares := cash / price
	l.pos.State = model.Held
	l.pos.EntryDate = date
	l.pos.EntryPrice = price
	l.pos.Shares = shares

	return model.Trade{
		Symbol: l.pos.Symbol,
		Date:   date,
		Action: model.TradeBuy,
		Price:  price,
		Shares: shares,
		Value:  cash,
	}, true
}

// Sell transitions Held -> Flat, realizing shares at price. Returns false
// without a transition when Flat.
func (l *Lifecycle) Sell(date time.Time, price float64, action model.TradeAction, reason string) (model.Trade, bool) {
	if l.pos.State != model.Held {
		return model.Trade{}, false
	}
	daysHeld := l.pos.DaysHeld(date)
	trade := model.Trade{
		Symbol:     l.pos.Symbol,
		Date:       date,
		Action:     action,
		Price:      price,
		Shares:     l.pos.Shares,
		Value:      l.pos.Shares * price,
		Reason:     reason,
		EntryPrice: l.pos.EntryPrice,
		ProfitPct:  (price - l.pos.EntryPrice) / l.pos.EntryPrice * 100,
		DaysHeld:   daysHeld,
	}

	l.pos.State = model.Flat
	l.pos.EntryDate = time.Time{}
	l.pos.EntryPrice = 0
	l.pos.Shares = 0
	return trade, true
}

// ForceExit liquidates on holding-period expiry.
func (l *Lifecycle) ForceExit(date time.Time, price float64) (model.Trade, bool) {
	reason := fmt.Sprintf("time expired after %d days", l.pos.DaysHeld(date))
	return l.Sell(date, price, model.TradeSellTime, reason)
}

// Settle liquidates at the end of a run.
func (l *Lifecycle) Settle(date time.Time, price float64) (model.Trade, bool) {
	return l.Sell(date, price, model.TradeSellFinal, "end of backtest")
}
