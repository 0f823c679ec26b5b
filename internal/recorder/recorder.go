package recorder

import (
	"time"

	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

// Alert records one live signal notification.
type Alert struct {
	Symbol      string
	Kind        string // "BUY" or "SELL"
	Price       float64
	RSI         float64
	WilliamsR   float64
	VolumeRatio float64
	Reason      string
}

// RunMeta describes the run a result belongs to.
type RunMeta struct {
	Preset         string
	InitialCapital float64
	StartDate      time.Time
	EndDate        time.Time
}

// Recorder persists backtest results and live alerts for later analysis.
type Recorder interface {
	// RecordBacktest stores a single-asset result and returns the run ID.
	RecordBacktest(meta RunMeta, res *model.BacktestResult) (string, error)
	// RecordPortfolio stores a portfolio result (with its snapshot history)
	// and returns the run ID.
	RecordPortfolio(meta RunMeta, res *model.PortfolioResult) (string, error)
	RecordAlert(alert *Alert) error
	Close() error
}
