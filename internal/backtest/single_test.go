package backtest

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/dev-minimalism/us-bnf-strategy/internal/config"
	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
	"github.com/dev-minimalism/us-bnf-strategy/internal/signal"
)

func day(i int) time.Time {
	return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

// neutralRow is valid but fires no rule.
func neutralRow(date time.Time, price float64) model.IndicatorRow {
	r := model.IndicatorRow{
		RSI:         50,
		WilliamsR:   -50,
		MARatio:     1.0,
		VolumeRatio: 1.0,
		PrevClose:   price,
	}
	r.Time = date
	r.Close = price
	return r
}

func buyRow(date time.Time, price, rsi float64) model.IndicatorRow {
	r := neutralRow(date, price)
	r.RSI = rsi
	r.RSIOversold = true
	r.VolumeRatio = 1.5
	return r
}

func sellRow(date time.Time, price float64) model.IndicatorRow {
	r := neutralRow(date, price)
	r.RSI = 70
	r.RSIOverbought = true
	return r
}

func invalidRow(date time.Time, price float64) model.IndicatorRow {
	r := neutralRow(date, price)
	r.RSI = math.NaN()
	return r
}

func balancedClassifier(t *testing.T) *signal.Classifier {
	t.Helper()
	th, err := config.ResolvePreset("balanced")
	if err != nil {
		t.Fatal(err)
	}
	return signal.NewClassifier(th)
}

func TestSimulator_BuyDipSellRebound(t *testing.T) {
	sim := NewSimulator(balancedClassifier(t), 10000, 3)
	rows := []model.IndicatorRow{
		buyRow(day(0), 100, 25),
		neutralRow(day(1), 105),
		sellRow(day(2), 110),
	}

	res := sim.Run("AAPL", rows)
	if len(res.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(res.Trades))
	}

	buy, sell := res.Trades[0], res.Trades[1]
	if buy.Action != model.TradeBuy || buy.Shares != 100 {
		t.Errorf("expected all-in buy of 100 shares, got %s %.2f", buy.Action, buy.Shares)
	}
	if sell.Action != model.TradeSellSignal {
		t.Errorf("expected signal sell, got %s", sell.Action)
	}
	if math.Abs(sell.ProfitPct-10) > 1e-9 {
		t.Errorf("expected 10%% profit, got %.4f", sell.ProfitPct)
	}
	if math.Abs(res.FinalCash-11000) > 1e-9 {
		t.Errorf("expected final cash $11000, got %.2f", res.FinalCash)
	}
	if math.Abs(res.Metrics.TotalReturn-10) > 1e-9 {
		t.Errorf("expected 10%% total return, got %.4f", res.Metrics.TotalReturn)
	}
}

func TestSimulator_ForcedTimeExit(t *testing.T) {
	sim := NewSimulator(balancedClassifier(t), 10000, 3)
	rows := []model.IndicatorRow{
		buyRow(day(0), 100, 25),
		neutralRow(day(1), 101),
		neutralRow(day(2), 102),
		neutralRow(day(3), 103),
		neutralRow(day(4), 104),
	}

	res := sim.Run("AAPL", rows)
	if len(res.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(res.Trades))
	}
	exit := res.Trades[1]
	if exit.Action != model.TradeSellTime {
		t.Errorf("expected time exit, got %s", exit.Action)
	}
	if exit.DaysHeld != 3 {
		t.Errorf("expected exit after 3 days, got %d", exit.DaysHeld)
	}
	if !strings.Contains(exit.Reason, "time expired") {
		t.Errorf("unexpected exit reason %q", exit.Reason)
	}
}

func TestSimulator_ForcedExitPrecedesSellSignal(t *testing.T) {
	sim := NewSimulator(balancedClassifier(t), 10000, 3)
	rows := []model.IndicatorRow{
		buyRow(day(0), 100, 25),
		neutralRow(day(1), 101),
		neutralRow(day(2), 102),
		sellRow(day(3), 103), // expiry and sell signal coincide
	}

	res := sim.Run("AAPL", rows)
	exit := res.Trades[len(res.Trades)-1]
	if exit.Action != model.TradeSellTime {
		t.Errorf("forced exit must take precedence, got %s", exit.Action)
	}
}

func TestSimulator_SkipsInvalidRows(t *testing.T) {
	sim := NewSimulator(balancedClassifier(t), 10000, 3)
	rows := []model.IndicatorRow{
		invalidRow(day(0), 99),
		buyRow(day(1), 100, 25),
		invalidRow(day(2), 200), // must not produce an equity point at 200
		sellRow(day(3), 110),
	}

	res := sim.Run("AAPL", rows)
	if len(res.Curve) != 3 {
		t.Fatalf("expected 3 equity points for 3 valid rows, got %d", len(res.Curve))
	}
	if len(res.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(res.Trades))
	}
	for _, snap := range res.Curve {
		if math.Abs(snap.Cash+snap.StockValue-snap.TotalValue) > 1e-9 {
			t.Errorf("snapshot %s: cash+stock != total", snap.Date.Format("2006-01-02"))
		}
	}
}

func TestSimulator_FinalSettlement(t *testing.T) {
	sim := NewSimulator(balancedClassifier(t), 10000, 5)
	rows := []model.IndicatorRow{
		buyRow(day(0), 100, 25),
		neutralRow(day(1), 108),
	}

	res := sim.Run("AAPL", rows)
	last := res.Trades[len(res.Trades)-1]
	if last.Action != model.TradeSellFinal {
		t.Fatalf("expected final settlement, got %s", last.Action)
	}
	if math.Abs(res.FinalCash-10800) > 1e-9 {
		t.Errorf("expected settlement at last close ($10800), got %.2f", res.FinalCash)
	}
	if len(res.Completed) != 1 {
		t.Errorf("settlement should produce a completed round trip, got %d", len(res.Completed))
	}
}

func TestSimulator_NoSignalsNoTrades(t *testing.T) {
	sim := NewSimulator(balancedClassifier(t), 10000, 3)
	rows := []model.IndicatorRow{
		neutralRow(day(0), 100),
		neutralRow(day(1), 101),
		neutralRow(day(2), 102),
	}

	res := sim.Run("AAPL", rows)
	if len(res.Trades) != 0 {
		t.Errorf("expected no trades, got %d", len(res.Trades))
	}
	if res.FinalCash != 10000 {
		t.Errorf("capital must be untouched, got %.2f", res.FinalCash)
	}
	if res.Metrics.TotalReturn != 0 {
		t.Errorf("expected zero return, got %.4f", res.Metrics.TotalReturn)
	}
}

func TestLifecycle_WrongStateNoOps(t *testing.T) {
	life := NewLifecycle("AAPL", 3)

	if _, ok := life.Sell(day(0), 100, model.TradeSellSignal, "x"); ok {
		t.Error("sell while flat must be a no-op")
	}
	if _, ok := life.ForceExit(day(0), 100); ok {
		t.Error("forced exit while flat must be a no-op")
	}

	if _, ok := life.Buy(day(0), 100, 1000); !ok {
		t.Fatal("first buy should succeed")
	}
	if _, ok := life.Buy(day(1), 90, 1000); ok {
		t.Error("buy while held must be a no-op")
	}
	if life.State() != model.Held {
		t.Errorf("expected Held after buy, got %v", life.State())
	}

	trade, ok := life.Sell(day(2), 110, model.TradeSellSignal, "rebound")
	if !ok {
		t.Fatal("sell while held should succeed")
	}
	if math.Abs(trade.ProfitPct-10) > 1e-9 {
		t.Errorf("expected 10%% profit, got %.4f", trade.ProfitPct)
	}
	if trade.DaysHeld != 2 {
		t.Errorf("expected 2 days held, got %d", trade.DaysHeld)
	}
	if life.State() != model.Flat {
		t.Errorf("expected Flat after sell, got %v", life.State())
	}
}
