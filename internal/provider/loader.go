package provider

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dev-minimalism/us-bnf-strategy/internal/config"
	"github.com/dev-minimalism/us-bnf-strategy/internal/indicator"
	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

// Loader turns a raw symbol into simulation-ready indicator rows: fetch with
// retry, quality-gate, compute indicators.
type Loader struct {
	Fetcher     Fetcher
	Params      indicator.Params
	Thresholds  config.Thresholds
	MaxAttempts int
	BaseDelay   time.Duration
}

// NewLoader creates a Loader with the bounded retry policy used for batch
// runs (3 attempts, 1s base delay).
func NewLoader(fetcher Fetcher, params indicator.Params, th config.Thresholds) *Loader {
	return &Loader{
		Fetcher:     fetcher,
		Params:      params,
		Thresholds:  th,
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// LoadRows fetches, validates and annotates one symbol's bars. All failures
// are per-symbol: callers log, tally and move on.
func (l *Loader) LoadRows(ctx context.Context, symbol string, start, end time.Time) ([]model.IndicatorRow, error) {
	bars, err := FetchWithRetry(ctx, l.Fetcher, symbol, start, end, l.MaxAttempts, l.BaseDelay)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if err := ValidateQuality(symbol, bars); err != nil {
		return nil, err
	}
	rows, err := indicator.Compute(bars, l.Params, l.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("indicators %s: %w", symbol, err)
	}
	return rows, nil
}

// LoadBatch loads many symbols, skipping failures. It returns the loaded
// series plus a reason per failed symbol.
func (l *Loader) LoadBatch(ctx context.Context, symbols []string, start, end time.Time) (map[string][]model.IndicatorRow, map[string]string) {
	series := make(map[string][]model.IndicatorRow, len(symbols))
	failed := make(map[string]string)

	for _, symbol := range symbols {
		rows, err := l.LoadRows(ctx, symbol, start, end)
		if err != nil {
			kind := ClassifyFailure(err)
			log.Printf("[WARN] %s skipped (%s): %v", symbol, kind, err)
			failed[symbol] = string(kind)
			continue
		}
		series[symbol] = rows
	}
	return series, failed
}
