package backtest

import (
	"math"

	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

const tradingDaysPerYear = 252

// CompleteTrades pairs each BUY with its closing SELL_* per symbol, in ledger
// order.
func CompleteTrades(trades []model.Trade) []model.CompletedTrade {
	open := make(map[string]*model.Trade)
	var completed []model.CompletedTrade

	for i := range trades {
		t := &trades[i]
		switch {
		case t.Action == model.TradeBuy:
			open[t.Symbol] = t
		case t.Action.IsSell():
			buy, ok := open[t.Symbol]
			if !ok {
				continue
			}
			profitPct := (t.Price - buy.Price) / buy.Price * 100
			completed = append(completed, model.CompletedTrade{
				Symbol:      t.Symbol,
				EntryDate:   buy.Date,
				ExitDate:    t.Date,
				EntryPrice:  buy.Price,
				ExitPrice:   t.Price,
				ProfitPct:   profitPct,
				HoldingDays: int(t.Date.Sub(buy.Date).Hours() / 24),
				ExitAction:  t.Action,
				Winning:     profitPct > 0,
			})
			delete(open, t.Symbol)
		}
	}
	return completed
}

// Compute derives the full metric set from a completed-trade list and equity
// curve. All functions here are pure.
func Compute(completed []model.CompletedTrade, curve []model.Snapshot, initialValue, finalValue float64) model.Metrics {
	m := model.Metrics{
		TotalReturn: (finalValue - initialValue) / initialValue * 100,
	}

	m.TotalTrades = len(completed)
	var profits, losses []float64
	var holdingSum float64
	for _, t := range completed {
		if t.Winning {
			m.WinningTrades++
			profits = append(profits, t.ProfitPct)
		} else {
			losses = append(losses, t.ProfitPct)
		}
		holdingSum += float64(t.HoldingDays)
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
		m.AvgHoldingDays = holdingSum / float64(m.TotalTrades)
	}
	m.AvgProfit = mean(profits)
	m.AvgLoss = mean(losses)
	if m.AvgLoss != 0 {
		m.ProfitFactor = math.Abs(m.AvgProfit / m.AvgLoss)
	} else {
		m.ProfitFactor = math.Inf(1)
	}

	m.MaxDrawdown = MaxDrawdown(curve)

	returns := dailyReturns(curve)
	m.AvgDailyReturn = mean(returns)
	m.Volatility = stddev(returns)
	if m.Volatility > 0 {
		m.SharpeRatio = (m.AvgDailyReturn * tradingDaysPerYear) / (m.Volatility * math.Sqrt(tradingDaysPerYear))
	}

	m.CAGR = cagr(curve, initialValue, finalValue)
	return m
}

// MaxDrawdown returns the largest percentage decline from a running peak of
// total value.
func MaxDrawdown(curve []model.Snapshot) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].TotalValue
	maxDD := 0.0
	for _, snap := range curve {
		if snap.TotalValue > peak {
			peak = snap.TotalValue
		}
		dd := (peak - snap.TotalValue) / peak * 100
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// dailyReturns converts the equity curve into day-over-day percent changes.
func dailyReturns(curve []model.Snapshot) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].TotalValue
		if prev == 0 {
			continue
		}
		returns = append(returns, (curve[i].TotalValue-prev)/prev*100)
	}
	return returns
}

// cagr annualizes the total return over the curve's actual calendar span.
func cagr(curve []model.Snapshot, initialValue, finalValue float64) float64 {
	if len(curve) < 2 || initialValue <= 0 || finalValue <= 0 {
		return 0
	}
	days := curve[len(curve)-1].Date.Sub(curve[0].Date).Hours() / 24
	if days <= 0 {
		return 0
	}
	years := days / 365.25
	return (math.Pow(finalValue/initialValue, 1/years) - 1) * 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(values)))
}
