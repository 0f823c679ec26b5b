package notifier

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

// money formats dollar amounts with thousand separators ($12,345.67).
var money = message.NewPrinter(language.English)

func usd(v float64) string {
	return money.Sprintf("$%.2f", v)
}

// FormatBuyAlert formats a buy signal into a Telegram message.
func FormatBuyAlert(sig *model.Signal) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🟢 <b>BUY %s</b> | %s\n\n", sig.Symbol, sig.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Price: %s\n", usd(sig.Price)))
	b.WriteString(fmt.Sprintf("RSI: %.1f | Williams %%R: %.1f\n", sig.RSI, sig.WilliamsR))
	b.WriteString(fmt.Sprintf("Volume ratio: %.2fx | MA ratio: %.3f\n", sig.VolumeRatio, sig.MARatio))
	b.WriteString(fmt.Sprintf("\nTriggered: %s\n", sig.BuyReason))
	return b.String()
}

// FormatSellAlert formats a sell signal into a Telegram message.
func FormatSellAlert(sig *model.Signal) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔴 <b>SELL %s</b> | %s\n\n", sig.Symbol, sig.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Price: %s\n", usd(sig.Price)))
	b.WriteString(fmt.Sprintf("RSI: %.1f | Williams %%R: %.1f\n", sig.RSI, sig.WilliamsR))
	b.WriteString(fmt.Sprintf("\nTriggered: %s\n", sig.SellReason))
	return b.String()
}

// FormatScanSummary formats the result of one watchlist scan.
func FormatScanSummary(scanned, buys, sells int, failed map[string]string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔍 <b>Scan complete</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Symbols scanned: %d\n", scanned))
	b.WriteString(fmt.Sprintf("Buy signals: %d | Sell signals: %d\n", buys, sells))
	if len(failed) > 0 {
		symbols := make([]string, 0, len(failed))
		for s := range failed {
			symbols = append(symbols, s)
		}
		sort.Strings(symbols)
		b.WriteString(fmt.Sprintf("Skipped: %s\n", strings.Join(symbols, ", ")))
	}
	return b.String()
}

// FormatBacktestReport formats a single-asset backtest result.
func FormatBacktestReport(res *model.BacktestResult, preset string, initialCapital float64) string {
	m := res.Metrics
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Backtest %s</b> (%s preset)\n\n", res.Symbol, preset))
	b.WriteString(fmt.Sprintf("Capital: %s → %s\n", usd(initialCapital), usd(res.FinalCash)))
	b.WriteString(fmt.Sprintf("Return: %+.2f%% | CAGR: %+.2f%%\n", m.TotalReturn, m.CAGR))
	b.WriteString(fmt.Sprintf("Trades: %d | Win rate: %.1f%%\n", m.TotalTrades, m.WinRate))
	b.WriteString(fmt.Sprintf("Profit factor: %s\n", formatProfitFactor(m.ProfitFactor)))
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f%% | Sharpe: %.2f\n", m.MaxDrawdown, m.SharpeRatio))
	b.WriteString(fmt.Sprintf("Avg holding: %.1f days\n", m.AvgHoldingDays))
	return b.String()
}

// FormatPortfolioReport formats a multi-asset portfolio result.
func FormatPortfolioReport(res *model.PortfolioResult, preset string) string {
	m := res.Metrics
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💼 <b>Portfolio backtest</b> (%s preset, %d symbols)\n\n", preset, len(res.Symbols)))
	b.WriteString(fmt.Sprintf("Capital: %s → %s (%+.2f%%)\n", usd(res.InitialCapital), usd(res.FinalValue), m.TotalReturn))
	b.WriteString(fmt.Sprintf("Profit: %s\n\n", usd(res.TotalProfit)))
	b.WriteString(fmt.Sprintf("Trades: %d buys / %d signal sells / %d time sells / %d final sells\n",
		res.BuyTrades, res.SellSignalTrades, res.SellTimeTrades, res.SellFinalTrades))
	b.WriteString(fmt.Sprintf("Win rate: %.1f%% | Profit factor: %s\n", m.WinRate, formatProfitFactor(m.ProfitFactor)))
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f%% | Sharpe: %.2f | CAGR: %+.2f%%\n", m.MaxDrawdown, m.SharpeRatio, m.CAGR))
	b.WriteString(fmt.Sprintf("Avg positions: %.1f | Peak positions: %d\n", res.AvgPositions, res.MaxPositionsHeld))
	return b.String()
}

// FormatHeartbeat formats the hourly liveness message.
func FormatHeartbeat(watchlistSize int, lastScan time.Time, alertsToday int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💓 <b>Monitor alive</b> | %s\n", time.Now().Format("15:04 MST")))
	b.WriteString(fmt.Sprintf("Watching %d symbols\n", watchlistSize))
	if !lastScan.IsZero() {
		b.WriteString(fmt.Sprintf("Last scan: %s\n", lastScan.Format("15:04:05")))
	}
	b.WriteString(fmt.Sprintf("Alerts today: %d\n", alertsToday))
	return b.String()
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "∞ (no losing trades)"
	}
	return fmt.Sprintf("%.2f", pf)
}
