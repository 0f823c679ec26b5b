// Package provider fetches daily bar series from market-data sources and
// prepares them for the simulation engine. Provider failures are never fatal
// to a multi-symbol run; they are classified, logged and the symbol skipped.
package provider

import (
	"context"
	"strings"
	"time"

	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchDailyBars returns the date-ordered daily bars for symbol within
	// [start, end].
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}

// FailureKind buckets provider errors for the per-symbol tally.
type FailureKind string

const (
	FailureNoData        FailureKind = "no-data"
	FailureInvalidTicker FailureKind = "invalid-ticker"
	FailureTimeout       FailureKind = "timeout"
	FailureOther         FailureKind = "other"
)

// ClassifyFailure maps a provider error to a FailureKind by message content,
// since upstream APIs expose no structured error codes.
func ClassifyFailure(err error) FailureKind {
	if err == nil {
		return FailureOther
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no data"):
		return FailureNoData
	case strings.Contains(msg, "invalid ticker"), strings.Contains(msg, "not found"), strings.Contains(msg, "delisted"):
		return FailureInvalidTicker
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return FailureTimeout
	default:
		return FailureOther
	}
}

// FetchWithRetry calls the fetcher up to maxAttempts times with exponential
// backoff starting at baseDelay, respecting context cancellation between
// attempts.
func FetchWithRetry(ctx context.Context, f Fetcher, symbol string, start, end time.Time, maxAttempts int, baseDelay time.Duration) ([]model.OHLCV, error) {
	var bars []model.OHLCV
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		bars, err = f.FetchDailyBars(ctx, symbol, start, end)
		if err == nil {
			return bars, nil
		}
		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return nil, err
}
