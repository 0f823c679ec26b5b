package model

import "time"

// PositionState is the per-symbol lifecycle state.
type PositionState int

const (
	Flat PositionState = iota
	Held
)

func (s PositionState) String() string {
	if s == Held {
		return "HELD"
	}
	return "FLAT"
}

// Position tracks one symbol's holding. Exactly one Position exists per symbol
// at any time; it is reset to Flat on every exit.
type Position struct {
	Symbol     string
	State      PositionState
	EntryDate  time.Time
	EntryPrice float64
	Shares     float64
}

// DaysHeld returns the calendar-day difference between entry and now.
func (p *Position) DaysHeld(now time.Time) int {
	if p.State != Held {
		return 0
	}
	return int(now.Sub(p.EntryDate).Hours() / 24)
}

// Snapshot is one simulated date's portfolio valuation.
// Invariant: TotalValue == Cash + StockValue.
type Snapshot struct {
	Date       time.Time
	Cash       float64
	StockValue float64
	TotalValue float64
	Positions  int
}
