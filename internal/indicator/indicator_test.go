package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/dev-minimalism/us-bnf-strategy/internal/config"
	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

func mkBars(closes []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   day.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func oscillating(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)*0.7)
	}
	return closes
}

func balanced(t *testing.T) config.Thresholds {
	t.Helper()
	th, err := config.ResolvePreset("balanced")
	if err != nil {
		t.Fatalf("resolve balanced preset: %v", err)
	}
	return th
}

func TestCompute_InsufficientHistory(t *testing.T) {
	bars := mkBars(oscillating(10))
	_, err := Compute(bars, DefaultParams(), balanced(t))
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestCompute_WarmupUndefined(t *testing.T) {
	rows, err := Compute(mkBars(oscillating(40)), DefaultParams(), balanced(t))
	if err != nil {
		t.Fatal(err)
	}
	p := DefaultParams()
	for i := 0; i < p.RSIPeriod; i++ {
		if !math.IsNaN(rows[i].RSI) {
			t.Errorf("row %d: expected NaN RSI in warm-up, got %.2f", i, rows[i].RSI)
		}
		if rows[i].Valid() {
			t.Errorf("row %d: warm-up row should be invalid", i)
		}
	}
	for i := p.RSIPeriod; i < len(rows); i++ {
		if !rows[i].Valid() {
			t.Errorf("row %d: expected valid row after warm-up", i)
		}
	}
}

func TestCompute_IndicatorBounds(t *testing.T) {
	rows, err := Compute(mkBars(oscillating(60)), DefaultParams(), balanced(t))
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range rows {
		if !r.Valid() {
			continue
		}
		if r.RSI < 0 || r.RSI > 100 {
			t.Errorf("row %d: RSI %.2f out of [0,100]", i, r.RSI)
		}
		if r.WilliamsR < -100 || r.WilliamsR > 0 {
			t.Errorf("row %d: Williams %%R %.2f out of [-100,0]", i, r.WilliamsR)
		}
		if r.VolumeRatio < 0 {
			t.Errorf("row %d: negative volume ratio %.2f", i, r.VolumeRatio)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	bars := mkBars(oscillating(50))
	a, err := Compute(bars, DefaultParams(), balanced(t))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute(bars, DefaultParams(), balanced(t))
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i].RSI != b[i].RSI && !(math.IsNaN(a[i].RSI) && math.IsNaN(b[i].RSI)) {
			t.Fatalf("row %d: RSI differs between runs: %.6f vs %.6f", i, a[i].RSI, b[i].RSI)
		}
		if a[i].MARatio != b[i].MARatio {
			t.Fatalf("row %d: MA ratio differs between runs", i)
		}
	}
}

func TestRSI_AllGains(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rows, err := Compute(mkBars(closes), DefaultParams(), balanced(t))
	if err != nil {
		t.Fatal(err)
	}
	last := rows[len(rows)-1]
	if last.RSI != 100 {
		t.Errorf("expected RSI 100 for monotonic gains, got %.2f", last.RSI)
	}
}

func TestRSI_FlatSeriesUndefined(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	rows, err := Compute(mkBars(closes), DefaultParams(), balanced(t))
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range rows {
		if !math.IsNaN(r.RSI) {
			t.Errorf("row %d: expected NaN RSI on flat series, got %.2f", i, r.RSI)
		}
		if r.Valid() {
			t.Errorf("row %d: flat-series row should never be valid", i)
		}
	}
}

func TestWilliamsR_ZeroRangeUndefined(t *testing.T) {
	bars := mkBars(oscillating(30))
	// Collapse the trailing window to a single price level.
	for i := 10; i < 30; i++ {
		bars[i].High = 100
		bars[i].Low = 100
		bars[i].Close = 100
	}
	rows, err := Compute(bars, DefaultParams(), balanced(t))
	if err != nil {
		t.Fatal(err)
	}
	last := rows[len(rows)-1]
	if !math.IsNaN(last.WilliamsR) {
		t.Errorf("expected NaN Williams %%R on zero-range window, got %.2f", last.WilliamsR)
	}
}

func TestVolumeRatio_ZeroVolume(t *testing.T) {
	bars := mkBars(oscillating(30))
	for i := range bars {
		bars[i].Volume = 0
	}
	rows, err := Compute(bars, DefaultParams(), balanced(t))
	if err != nil {
		t.Fatal(err)
	}
	last := rows[len(rows)-1]
	if last.VolumeRatio != 1.0 {
		t.Errorf("expected volume ratio 1.0 with no volume data, got %.2f", last.VolumeRatio)
	}
}

func TestCompute_ThresholdFlags(t *testing.T) {
	th := balanced(t)
	rows, err := Compute(mkBars(oscillating(60)), DefaultParams(), th)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range rows {
		if !r.Valid() {
			continue
		}
		if r.RSIOversold != (r.RSI <= th.RSIOversold) {
			t.Errorf("row %d: RSIOversold flag inconsistent with value %.2f", i, r.RSI)
		}
		if r.MAOversold != (r.MARatio <= th.MAOversoldRatio) {
			t.Errorf("row %d: MAOversold flag inconsistent with ratio %.3f", i, r.MARatio)
		}
	}
}
