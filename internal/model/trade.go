package model

import "time"

// TradeAction identifies what kind of lifecycle transition a trade records.
type TradeAction string

const (
	TradeBuy        TradeAction = "BUY"
	TradeSellSignal TradeAction = "SELL_SIGNAL"
	TradeSellTime   TradeAction = "SELL_TIME"
	TradeSellFinal  TradeAction = "SELL_FINAL"
)

// IsSell reports whether the action closes a position.
func (a TradeAction) IsSell() bool {
	return a == TradeSellSignal || a == TradeSellTime || a == TradeSellFinal
}

// Trade is an immutable record of one lifecycle transition.
type Trade struct {
	Symbol     string
	Date       time.Time
	Action     TradeAction
	Price      float64
	Shares     float64
	Value      float64 // cash committed on buy, cash realized on sell
	Reason     string  // sells only
	EntryPrice float64 // sells only
	ProfitPct  float64 // sells only, relative to the paired entry
	DaysHeld   int     // sells only
}

// CompletedTrade is a paired BUY -> SELL_* round trip.
type CompletedTrade struct {
	Symbol      string
	EntryDate   time.Time
	ExitDate    time.Time
	EntryPrice  float64
	ExitPrice   float64
	ProfitPct   float64
	HoldingDays int
	ExitAction  TradeAction
	Winning     bool
}
