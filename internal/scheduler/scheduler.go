package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
	"github.com/dev-minimalism/us-bnf-strategy/internal/notifier"
	"github.com/dev-minimalism/us-bnf-strategy/internal/provider"
	"github.com/dev-minimalism/us-bnf-strategy/internal/recorder"
	"github.com/dev-minimalism/us-bnf-strategy/internal/signal"
)

// alertCooldown suppresses repeat alerts for the same symbol and side.
const alertCooldown = time.Hour

// lookbackDays is the calendar window fetched per scan. It comfortably covers
// the longest indicator warm-up even across holiday-heavy stretches.
const lookbackDays = 120

// trackedPosition mirrors the state an alert subscriber would hold after
// acting on a buy alert.
type trackedPosition struct {
	EntryPrice float64
	EntryTime  time.Time
}

// Scheduler runs the periodic watchlist scan and the hourly heartbeat, and
// answers Telegram commands.
type Scheduler struct {
	Cron           *cron.Cron
	Loader         *provider.Loader
	Classifier     *signal.Classifier
	Notifier       notifier.Notifier
	Recorder       recorder.Recorder
	Ctx            context.Context
	Watchlist      []string
	MaxHoldingDays int

	mu          sync.Mutex
	positions   map[string]*trackedPosition
	lastAlerts  map[string]time.Time
	lastScan    time.Time
	alertsToday int
}

// NewScheduler creates a Scheduler with no tasks registered.
func NewScheduler(ctx context.Context, loader *provider.Loader, cls *signal.Classifier, n notifier.Notifier, rec recorder.Recorder, watchlist []string, maxHoldingDays int) *Scheduler {
	return &Scheduler{
		Cron:           cron.New(cron.WithSeconds()),
		Loader:         loader,
		Classifier:     cls,
		Notifier:       n,
		Recorder:       rec,
		Ctx:            ctx,
		Watchlist:      watchlist,
		MaxHoldingDays: maxHoldingDays,
		positions:      make(map[string]*trackedPosition),
		lastAlerts:     make(map[string]time.Time),
	}
}

// RegisterAll registers the scan, heartbeat, and daily counter reset tasks.
func (s *Scheduler) RegisterAll(scanIntervalMinutes int) error {
	scanSpec := fmt.Sprintf("0 */%d * * * 1-5", scanIntervalMinutes)
	if _, err := s.Cron.AddFunc(scanSpec, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	if _, err := s.Cron.AddFunc("0 0 * * * *", s.heartbeatTask); err != nil {
		return fmt.Errorf("register heartbeat: %w", err)
	}
	// Daily alert counter reset at midnight ET (approximated in local time).
	if _, err := s.Cron.AddFunc("0 0 0 * * *", func() {
		s.mu.Lock()
		s.alertsToday = 0
		s.mu.Unlock()
		log.Println("[INFO] daily alert counter reset")
	}); err != nil {
		return fmt.Errorf("register daily reset: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Printf("[INFO] scheduler started, watching %d symbols", len(s.Watchlist))
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunScanNow executes a scan immediately, ignoring market hours. Used for
// manual triggers and the one-shot scan command.
func (s *Scheduler) RunScanNow() {
	s.scan(true)
}

func (s *Scheduler) scanTask() {
	s.scan(false)
}

func (s *Scheduler) scan(force bool) {
	if !force && !MarketOpen(time.Now()) {
		log.Println("[INFO] market closed, skipping scan")
		return
	}
	log.Printf("[INFO] scanning %d symbols", len(s.Watchlist))

	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)
	series, failed := s.Loader.LoadBatch(s.Ctx, s.Watchlist, start, end)

	buys, sells := 0, 0
	for _, symbol := range s.Watchlist {
		rows, ok := series[symbol]
		if !ok || len(rows) == 0 {
			continue
		}
		latest := &rows[len(rows)-1]
		if b, sl := s.evaluate(symbol, latest); b {
			buys++
		} else if sl {
			sells++
		}
	}

	s.mu.Lock()
	s.lastScan = time.Now()
	s.mu.Unlock()

	log.Printf("[INFO] scan done: %d buys, %d sells, %d failed", buys, sells, len(failed))
	if buys > 0 || sells > 0 {
		s.trySend(notifier.FormatScanSummary(len(s.Watchlist), buys, sells, failed))
	}
}

// evaluate classifies the latest row for one symbol and dispatches alerts.
// It reports whether a buy or sell alert fired.
func (s *Scheduler) evaluate(symbol string, latest *model.IndicatorRow) (bool, bool) {
	state := model.Flat
	s.mu.Lock()
	pos := s.positions[symbol]
	s.mu.Unlock()
	if pos != nil {
		state = model.Held
	}

	sig := s.Classifier.Classify(symbol, latest, state)

	if sig.Buy && s.shouldAlert(symbol, "BUY") {
		s.sendAlert(&sig, "BUY")
		s.mu.Lock()
		s.positions[symbol] = &trackedPosition{EntryPrice: sig.Price, EntryTime: time.Now()}
		s.mu.Unlock()
		return true, false
	}

	if pos != nil {
		heldDays := int(time.Since(pos.EntryTime).Hours() / 24)
		if heldDays >= s.MaxHoldingDays && s.shouldAlert(symbol, "SELL") {
			sig.Sell = true
			sig.SellReason = fmt.Sprintf("time expired after %d days", heldDays)
			s.sendAlert(&sig, "SELL")
			s.mu.Lock()
			delete(s.positions, symbol)
			s.mu.Unlock()
			return false, true
		}
	}

	if sig.Sell && s.shouldAlert(symbol, "SELL") {
		s.sendAlert(&sig, "SELL")
		s.mu.Lock()
		delete(s.positions, symbol)
		s.mu.Unlock()
		return false, true
	}

	return false, false
}

func (s *Scheduler) sendAlert(sig *model.Signal, kind string) {
	var text, reason string
	if kind == "BUY" {
		text = notifier.FormatBuyAlert(sig)
		reason = sig.BuyReason
	} else {
		text = notifier.FormatSellAlert(sig)
		reason = sig.SellReason
	}
	s.trySend(text)

	s.mu.Lock()
	s.alertsToday++
	s.mu.Unlock()

	if err := s.Recorder.RecordAlert(&recorder.Alert{
		Symbol:      sig.Symbol,
		Kind:        kind,
		Price:       sig.Price,
		RSI:         sig.RSI,
		WilliamsR:   sig.WilliamsR,
		VolumeRatio: sig.VolumeRatio,
		Reason:      reason,
	}); err != nil {
		log.Printf("[ERROR] record alert: %v", err)
	}
}

// shouldAlert applies the per-symbol, per-side cooldown.
func (s *Scheduler) shouldAlert(symbol, kind string) bool {
	key := symbol + "_" + kind
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastAlerts[key]; ok && now.Sub(last) < alertCooldown {
		return false
	}
	s.lastAlerts[key] = now
	return true
}

func (s *Scheduler) heartbeatTask() {
	s.mu.Lock()
	lastScan := s.lastScan
	alerts := s.alertsToday
	s.mu.Unlock()
	s.trySend(notifier.FormatHeartbeat(len(s.Watchlist), lastScan, alerts))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "/scan":
		go s.RunScanNow()
		return "Scan started."
	case "/status":
		return s.statusReply()
	case "/ticker":
		if len(fields) < 2 {
			return "Usage: /ticker SYMBOL"
		}
		return s.tickerReply(strings.ToUpper(fields[1]))
	case "/help":
		return "Commands:\n/scan - run a scan now\n/status - monitor status\n/ticker SYMBOL - latest indicators\n/help - this message"
	default:
		return "Unknown command. Try /help."
	}
}

func (s *Scheduler) statusReply() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	openState := "closed"
	if MarketOpen(time.Now()) {
		openState = "open"
	}
	b.WriteString(fmt.Sprintf("Market: %s\n", openState))
	b.WriteString(fmt.Sprintf("Watchlist: %d symbols\n", len(s.Watchlist)))
	b.WriteString(fmt.Sprintf("Alerts today: %d\n", s.alertsToday))
	if !s.lastScan.IsZero() {
		b.WriteString(fmt.Sprintf("Last scan: %s\n", s.lastScan.Format("2006-01-02 15:04:05")))
	}
	if len(s.positions) > 0 {
		b.WriteString("Tracked positions:\n")
		for sym, p := range s.positions {
			b.WriteString(fmt.Sprintf("  %s since %s\n", sym, p.EntryTime.Format("01-02 15:04")))
		}
	}
	return b.String()
}

func (s *Scheduler) tickerReply(symbol string) string {
	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)
	rows, err := s.Loader.LoadRows(s.Ctx, symbol, start, end)
	if err != nil {
		return fmt.Sprintf("Could not load %s: %v", symbol, err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No data for %s", symbol)
	}
	r := rows[len(rows)-1]
	return fmt.Sprintf("%s @ %.2f (%s)\nRSI: %.1f | Williams %%R: %.1f\nVolume ratio: %.2fx | MA ratio: %.3f",
		symbol, r.Close, r.Time.Format("2006-01-02"), r.RSI, r.WilliamsR, r.VolumeRatio, r.MARatio)
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
