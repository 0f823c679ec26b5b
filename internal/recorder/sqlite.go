package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

// SQLiteRecorder persists runs, trades, snapshots and alerts to a SQLite
// database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers can inspect results while a run is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT NOT NULL,
			created_at       INTEGER NOT NULL,
			kind             TEXT NOT NULL,
			symbol           TEXT,
			preset           TEXT,
			initial_capital  REAL,
			final_value      REAL,
			total_return     REAL,
			win_rate         REAL,
			total_trades     INTEGER,
			profit_factor    REAL,
			avg_holding_days REAL,
			max_drawdown     REAL,
			volatility       REAL,
			sharpe_ratio     REAL,
			cagr             REAL,
			start_date       TEXT,
			end_date         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_run_id ON backtest_runs(run_id)`,

		`CREATE TABLE IF NOT EXISTS backtest_trades (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL,
			symbol     TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			action     TEXT NOT NULL,
			price      REAL,
			shares     REAL,
			value      REAL,
			reason     TEXT,
			profit_pct REAL,
			days_held  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run_id ON backtest_trades(run_id)`,

		`CREATE TABLE IF NOT EXISTS portfolio_snapshots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			snapshot_date TEXT NOT NULL,
			cash          REAL,
			stock_value   REAL,
			total_value   REAL,
			positions     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_run_id ON portfolio_snapshots(run_id)`,

		`CREATE TABLE IF NOT EXISTS signal_alerts (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			kind         TEXT NOT NULL,
			price        REAL,
			rsi          REAL,
			williams_r   REAL,
			volume_ratio REAL,
			reason       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON signal_alerts(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordBacktest stores one single-asset result and its trade ledger.
func (r *SQLiteRecorder) RecordBacktest(meta RunMeta, res *model.BacktestResult) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runID := uuid.NewString()
	if err := r.insertRun(runID, "single", res.Symbol, meta, res.FinalCash, &res.Metrics); err != nil {
		return "", err
	}
	if err := r.insertTrades(runID, res.Trades); err != nil {
		return "", err
	}
	return runID, nil
}

// RecordPortfolio stores one portfolio result, its trades and its snapshots.
func (r *SQLiteRecorder) RecordPortfolio(meta RunMeta, res *model.PortfolioResult) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runID := uuid.NewString()
	if err := r.insertRun(runID, "portfolio", "", meta, res.FinalValue, &res.Metrics); err != nil {
		return "", err
	}
	if err := r.insertTrades(runID, res.Trades); err != nil {
		return "", err
	}
	for _, snap := range res.History {
		_, err := r.db.Exec(`INSERT INTO portfolio_snapshots
			(run_id, snapshot_date, cash, stock_value, total_value, positions)
			VALUES (?,?,?,?,?,?)`,
			runID, snap.Date.Format("2006-01-02"), snap.Cash, snap.StockValue,
			snap.TotalValue, snap.Positions,
		)
		if err != nil {
			return "", err
		}
	}
	return runID, nil
}

func (r *SQLiteRecorder) insertRun(runID, kind, symbol string, meta RunMeta, finalValue float64, m *model.Metrics) error {
	// SQLite has no +Inf REAL; store a sentinel for the lossless case.
	profitFactor := m.ProfitFactor
	if math.IsInf(profitFactor, 1) {
		profitFactor = -1
	}
	_, err := r.db.Exec(`INSERT INTO backtest_runs
		(run_id, created_at, kind, symbol, preset, initial_capital, final_value,
		 total_return, win_rate, total_trades, profit_factor, avg_holding_days,
		 max_drawdown, volatility, sharpe_ratio, cagr, start_date, end_date)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, time.Now().Unix(), kind, symbol, meta.Preset, meta.InitialCapital,
		finalValue, m.TotalReturn, m.WinRate, m.TotalTrades, profitFactor,
		m.AvgHoldingDays, m.MaxDrawdown, m.Volatility, m.SharpeRatio, m.CAGR,
		meta.StartDate.Format("2006-01-02"), meta.EndDate.Format("2006-01-02"),
	)
	return err
}

func (r *SQLiteRecorder) insertTrades(runID string, trades []model.Trade) error {
	for _, t := range trades {
		_, err := r.db.Exec(`INSERT INTO backtest_trades
			(run_id, symbol, trade_date, action, price, shares, value, reason, profit_pct, days_held)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			runID, t.Symbol, t.Date.Format("2006-01-02"), string(t.Action),
			t.Price, t.Shares, t.Value, t.Reason, t.ProfitPct, t.DaysHeld,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// RecordAlert stores one live signal notification.
func (r *SQLiteRecorder) RecordAlert(alert *Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO signal_alerts
		(timestamp, symbol, kind, price, rsi, williams_r, volume_ratio, reason)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), alert.Symbol, alert.Kind, alert.Price,
		alert.RSI, alert.WilliamsR, alert.VolumeRatio, alert.Reason,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
