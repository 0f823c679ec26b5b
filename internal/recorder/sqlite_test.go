package recorder

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func testMeta() RunMeta {
	return RunMeta{
		Preset:         "balanced",
		InitialCapital: 10000,
		StartDate:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteRecorder_RecordBacktest(t *testing.T) {
	r := openTestRecorder(t)

	res := &model.BacktestResult{
		Symbol:    "AAPL",
		FinalCash: 11000,
		Trades: []model.Trade{
			{Symbol: "AAPL", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Action: model.TradeBuy, Price: 100, Shares: 100, Value: 10000},
			{Symbol: "AAPL", Date: time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), Action: model.TradeSellSignal, Price: 110, Shares: 100, Value: 11000, ProfitPct: 10, DaysHeld: 2},
		},
	}
	res.Metrics.TotalReturn = 10
	res.Metrics.ProfitFactor = math.Inf(1)

	runID, err := r.RecordBacktest(testMeta(), res)
	if err != nil {
		t.Fatal(err)
	}
	if runID == "" {
		t.Fatal("expected a run ID")
	}

	var trades int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM backtest_trades WHERE run_id = ?", runID).Scan(&trades); err != nil {
		t.Fatal(err)
	}
	if trades != 2 {
		t.Errorf("expected 2 persisted trades, got %d", trades)
	}

	// +Inf cannot round-trip through REAL; the sentinel must be stored.
	var pf float64
	if err := r.db.QueryRow("SELECT profit_factor FROM backtest_runs WHERE run_id = ?", runID).Scan(&pf); err != nil {
		t.Fatal(err)
	}
	if pf != -1 {
		t.Errorf("expected sentinel -1 for infinite profit factor, got %f", pf)
	}
}

func TestSQLiteRecorder_RecordPortfolio(t *testing.T) {
	r := openTestRecorder(t)

	res := &model.PortfolioResult{
		InitialCapital: 10000,
		FinalValue:     10500,
		History: []model.Snapshot{
			{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Cash: 8000, StockValue: 2000, TotalValue: 10000, Positions: 1},
			{Date: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), Cash: 10500, StockValue: 0, TotalValue: 10500, Positions: 0},
		},
	}

	runID, err := r.RecordPortfolio(testMeta(), res)
	if err != nil {
		t.Fatal(err)
	}

	var snapshots int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM portfolio_snapshots WHERE run_id = ?", runID).Scan(&snapshots); err != nil {
		t.Fatal(err)
	}
	if snapshots != 2 {
		t.Errorf("expected 2 persisted snapshots, got %d", snapshots)
	}

	var kind string
	if err := r.db.QueryRow("SELECT kind FROM backtest_runs WHERE run_id = ?", runID).Scan(&kind); err != nil {
		t.Fatal(err)
	}
	if kind != "portfolio" {
		t.Errorf("expected kind portfolio, got %q", kind)
	}
}

func TestSQLiteRecorder_RecordAlert(t *testing.T) {
	r := openTestRecorder(t)

	err := r.RecordAlert(&Alert{
		Symbol:      "NVDA",
		Kind:        "BUY",
		Price:       850.5,
		RSI:         27.3,
		WilliamsR:   -82.0,
		VolumeRatio: 1.4,
		Reason:      "RSI oversold + volume surge",
	})
	if err != nil {
		t.Fatal(err)
	}

	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM signal_alerts WHERE symbol = 'NVDA'").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 alert row, got %d", count)
	}
}

func TestSQLiteRecorder_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	r1, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := r1.RecordAlert(&Alert{Symbol: "AAPL", Kind: "SELL"}); err != nil {
		t.Fatal(err)
	}
	if err := r1.Close(); err != nil {
		t.Fatal(err)
	}

	r2, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r2.Close()

	var count int
	if err := r2.db.QueryRow("SELECT COUNT(*) FROM signal_alerts").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected alert to survive reopen, got %d rows", count)
	}
}
