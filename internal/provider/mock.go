package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars map[string][]model.OHLCV
	Err  error
}

func (m *MockFetcher) Name() string { return "mock" }

// FetchDailyBars returns the configured series for symbol, or Err when set.
func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, _, _ time.Time) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	bars, ok := m.Bars[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: no data returned for %s", symbol)
	}
	return bars, nil
}

// GenerateBars produces a mildly trending synthetic series around basePrice,
// one bar per weekday starting at start.
func GenerateBars(basePrice float64, count int, start time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, 0, count)
	day := start
	for i := 0; i < count; i++ {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars = append(bars, model.OHLCV{
			Time:   day,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		day = day.AddDate(0, 0, 1)
	}
	return bars
}
