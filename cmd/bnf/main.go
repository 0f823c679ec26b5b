package main

import (
	"context"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dev-minimalism/us-bnf-strategy/internal/backtest"
	"github.com/dev-minimalism/us-bnf-strategy/internal/config"
	"github.com/dev-minimalism/us-bnf-strategy/internal/indicator"
	"github.com/dev-minimalism/us-bnf-strategy/internal/notifier"
	"github.com/dev-minimalism/us-bnf-strategy/internal/provider"
	"github.com/dev-minimalism/us-bnf-strategy/internal/recorder"
	"github.com/dev-minimalism/us-bnf-strategy/internal/scheduler"
	"github.com/dev-minimalism/us-bnf-strategy/internal/signal"
)

var version = "dev"

var (
	cfgPath   string
	symbols   []string
	startFlag string
	endFlag   string
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	root := &cobra.Command{
		Use:   "bnf",
		Short: "Counter-trend mean-reversion backtester and monitor for US equities",
		Long: "bnf backtests and monitors a short-horizon counter-trend strategy:\n" +
			"buy oversold dips confirmed by volume, exit on rebound or after a\n" +
			"fixed holding period.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default configs/config.yaml)")

	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run independent single-symbol backtests and rank the results",
		RunE:  runBacktest,
	}
	portfolioCmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Run a shared-capital portfolio backtest across symbols",
		RunE:  runPortfolio,
	}
	for _, c := range []*cobra.Command{backtestCmd, portfolioCmd} {
		c.Flags().StringSliceVar(&symbols, "symbols", nil, "symbols to test (default: configured watchlist)")
		c.Flags().StringVar(&startFlag, "start", "", "start date YYYY-MM-DD (default: 1 year ago)")
		c.Flags().StringVar(&endFlag, "end", "", "end date YYYY-MM-DD (default: today)")
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the watchlist once and report current signals",
		RunE:  runScan,
	}
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the live monitor with periodic scans and Telegram alerts",
		RunE:  runMonitor,
	}
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bnf %s\n", version)
		},
	}

	root.AddCommand(backtestCmd, portfolioCmd, scanCmd, monitorCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func buildFetcher(cfg *config.Config) provider.Fetcher {
	if cfg.DataSource.Provider == "alpaca" {
		return provider.NewAlpacaFetcher(cfg.DataSource.AlpacaKey, cfg.DataSource.AlpacaSecret, cfg.DataSource.AlpacaURL)
	}
	return provider.NewYahooFetcher(cfg.Proxy)
}

func buildLoader(cfg *config.Config) (*provider.Loader, config.Thresholds, error) {
	th, err := config.ResolvePreset(cfg.Strategy.Preset)
	if err != nil {
		return nil, th, err
	}
	fetcher := buildFetcher(cfg)
	log.Printf("[INFO] data source: %s, preset: %s", fetcher.Name(), th.Preset)
	return provider.NewLoader(fetcher, indicator.DefaultParams(), th), th, nil
}

func buildRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func resolveSymbols(cfg *config.Config) []string {
	if len(symbols) > 0 {
		out := make([]string, len(symbols))
		for i, s := range symbols {
			out[i] = strings.ToUpper(strings.TrimSpace(s))
		}
		return out
	}
	if len(cfg.Scan.Symbols) > 0 {
		return cfg.Scan.Symbols
	}
	return provider.DefaultWatchlist
}

func resolveRange() (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(-1, 0, 0)
	var err error
	if endFlag != "" {
		if end, err = time.Parse("2006-01-02", endFlag); err != nil {
			return start, end, fmt.Errorf("parse --end: %w", err)
		}
	}
	if startFlag != "" {
		if start, err = time.Parse("2006-01-02", startFlag); err != nil {
			return start, end, fmt.Errorf("parse --start: %w", err)
		}
	}
	if !start.Before(end) {
		return start, end, fmt.Errorf("start %s is not before end %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return start, end, nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loader, th, err := buildLoader(cfg)
	if err != nil {
		return err
	}
	start, end, err := resolveRange()
	if err != nil {
		return err
	}
	rec := buildRecorder(cfg)
	defer rec.Close()

	syms := resolveSymbols(cfg)
	series, failed := loader.LoadBatch(cmd.Context(), syms, start, end)
	if len(series) == 0 {
		return fmt.Errorf("no symbols loaded (%d failed)", len(failed))
	}

	cls := signal.NewClassifier(th)
	sim := backtest.NewSimulator(cls, cfg.Strategy.InitialCapital, cfg.Strategy.MaxHoldingDays)
	meta := recorder.RunMeta{
		Preset:         th.Preset,
		InitialCapital: cfg.Strategy.InitialCapital,
		StartDate:      start,
		EndDate:        end,
	}

	results := make([]*resultRow, 0, len(series))
	for sym, rows := range series {
		res := sim.Run(sym, rows)
		runID, err := rec.RecordBacktest(meta, res)
		if err != nil {
			log.Printf("[ERROR] record backtest %s: %v", sym, err)
		} else if runID != "" {
			log.Printf("[INFO] recorded %s as run %s", sym, runID)
		}
		results = append(results, &resultRow{
			symbol:   sym,
			ret:      res.Metrics.TotalReturn,
			trades:   res.Metrics.TotalTrades,
			winRate:  res.Metrics.WinRate,
			drawdown: res.Metrics.MaxDrawdown,
			sharpe:   res.Metrics.SharpeRatio,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].ret > results[j].ret })

	fmt.Printf("\nBacktest %s to %s, %s preset, $%.0f initial capital\n\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"), th.Preset, cfg.Strategy.InitialCapital)
	fmt.Printf("%-8s %10s %7s %8s %9s %7s\n", "SYMBOL", "RETURN", "TRADES", "WINRATE", "DRAWDOWN", "SHARPE")
	for _, r := range results {
		fmt.Printf("%-8s %+9.2f%% %7d %7.1f%% %8.2f%% %7.2f\n",
			r.symbol, r.ret, r.trades, r.winRate, r.drawdown, r.sharpe)
	}
	if len(failed) > 0 {
		fmt.Printf("\nSkipped %d symbols:\n", len(failed))
		for sym, reason := range failed {
			fmt.Printf("  %-8s %s\n", sym, reason)
		}
	}
	return nil
}

type resultRow struct {
	symbol   string
	ret      float64
	trades   int
	winRate  float64
	drawdown float64
	sharpe   float64
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loader, th, err := buildLoader(cfg)
	if err != nil {
		return err
	}
	start, end, err := resolveRange()
	if err != nil {
		return err
	}
	rec := buildRecorder(cfg)
	defer rec.Close()

	syms := resolveSymbols(cfg)
	series, failed := loader.LoadBatch(cmd.Context(), syms, start, end)
	if len(failed) > 0 {
		log.Printf("[WARN] %d of %d symbols skipped", len(failed), len(syms))
	}
	if len(series) == 0 {
		return fmt.Errorf("no symbols loaded")
	}

	cls := signal.NewClassifier(th)
	p := backtest.NewPortfolio(cls, cfg.Strategy.InitialCapital, cfg.Strategy.MaxPositions,
		cfg.Strategy.MaxHoldingDays, cfg.Strategy.CashFloor)
	res, err := p.Run(series)
	if err != nil {
		return err
	}

	meta := recorder.RunMeta{
		Preset:         th.Preset,
		InitialCapital: cfg.Strategy.InitialCapital,
		StartDate:      start,
		EndDate:        end,
	}
	if runID, err := rec.RecordPortfolio(meta, res); err != nil {
		log.Printf("[ERROR] record portfolio: %v", err)
	} else if runID != "" {
		log.Printf("[INFO] recorded portfolio run %s", runID)
	}

	m := res.Metrics
	fmt.Printf("\nPortfolio backtest %s to %s, %s preset, %d symbols\n\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"), th.Preset, len(res.Symbols))
	fmt.Printf("Capital:        $%.2f -> $%.2f (%+.2f%%)\n", res.InitialCapital, res.FinalValue, m.TotalReturn)
	fmt.Printf("Profit:         $%.2f\n", res.TotalProfit)
	fmt.Printf("Trades:         %d total (%d buys, %d signal sells, %d time sells, %d final sells)\n",
		m.TotalTrades, res.BuyTrades, res.SellSignalTrades, res.SellTimeTrades, res.SellFinalTrades)
	fmt.Printf("Win rate:       %.1f%% (%d/%d)\n", m.WinRate, m.WinningTrades, m.TotalTrades)
	fmt.Printf("Profit factor:  %.2f\n", m.ProfitFactor)
	fmt.Printf("Max drawdown:   %.2f%%\n", m.MaxDrawdown)
	fmt.Printf("Sharpe:         %.2f | Volatility: %.2f%%\n", m.SharpeRatio, m.Volatility)
	fmt.Printf("CAGR:           %+.2f%%\n", m.CAGR)
	fmt.Printf("Avg holding:    %.1f days\n", m.AvgHoldingDays)
	fmt.Printf("Positions:      %.1f avg, %d peak (max %d)\n", res.AvgPositions, res.MaxPositionsHeld, cfg.Strategy.MaxPositions)
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loader, th, err := buildLoader(cfg)
	if err != nil {
		return err
	}
	rec := buildRecorder(cfg)
	defer rec.Close()

	var n notifier.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		n = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	} else {
		log.Println("[INFO] Telegram not configured, printing alerts to console")
		n = &notifier.ConsoleNotifier{}
	}

	cls := signal.NewClassifier(th)
	watchlist := resolveSymbols(cfg)
	if len(watchlist) > cfg.Scan.MaxStocks {
		watchlist = watchlist[:cfg.Scan.MaxStocks]
	}

	sched := scheduler.NewScheduler(cmd.Context(), loader, cls, n, rec, watchlist, cfg.Strategy.MaxHoldingDays)
	sched.RunScanNow()
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateTelegram(); err != nil {
		return err
	}
	loader, th, err := buildLoader(cfg)
	if err != nil {
		return err
	}
	rec := buildRecorder(cfg)
	defer rec.Close()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	cls := signal.NewClassifier(th)

	watchlist := resolveSymbols(cfg)
	if len(watchlist) > cfg.Scan.MaxStocks {
		watchlist = watchlist[:cfg.Scan.MaxStocks]
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, loader, cls, tn, rec, watchlist, cfg.Strategy.MaxHoldingDays)
	if err := sched.RegisterAll(cfg.Scan.IntervalMinutes); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, scanning now")
		go sched.RunScanNow()
	}

	log.Println("[INFO] monitor is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	log.Println("[INFO] shutdown signal received, stopping...")
	return nil
}
