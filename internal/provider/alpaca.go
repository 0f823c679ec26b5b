package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

// Compile-time interface checks.
var (
	_ Fetcher = (*YahooFetcher)(nil)
	_ Fetcher = (*AlpacaFetcher)(nil)
	_ Fetcher = (*MockFetcher)(nil)
)

// AlpacaFetcher implements Fetcher via the Alpaca market-data API.
type AlpacaFetcher struct {
	client *marketdata.Client
}

// NewAlpacaFetcher creates a fetcher with the given Alpaca credentials.
// dataURL overrides the default market-data endpoint when non-empty.
func NewAlpacaFetcher(apiKey, apiSecret, dataURL string) *AlpacaFetcher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaFetcher{client: marketdata.NewClient(opts)}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// FetchDailyBars fetches daily bars for [start, end] in ascending date order.
// Alpaca uses dots for share classes where Yahoo uses dashes (BRK-B vs BRK.B).
func (f *AlpacaFetcher) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	alpacaSymbol := strings.ReplaceAll(symbol, "-", ".")

	alpacaBars, err := f.client.GetBars(alpacaSymbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca fetch %s: %w", symbol, err)
	}
	if len(alpacaBars) == 0 {
		return nil, fmt.Errorf("alpaca: no data returned for %s", symbol)
	}

	bars := make([]model.OHLCV, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, model.OHLCV{
			Time:   ab.Timestamp,
			Open:   ab.Open,
			High:   ab.High,
			Low:    ab.Low,
			Close:  ab.Close,
			Volume: float64(ab.Volume),
		})
	}
	return bars, nil
}
