package signal

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/dev-minimalism/us-bnf-strategy/internal/config"
	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

var testDate = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

// neutralRow returns a valid row that fires no rule under any preset.
func neutralRow() model.IndicatorRow {
	r := model.IndicatorRow{
		RSI:         50,
		WilliamsR:   -50,
		MARatio:     1.0,
		VolumeRatio: 1.0,
		PrevClose:   100,
	}
	r.Time = testDate
	r.Close = 100
	return r
}

func newBalanced(t *testing.T) *Classifier {
	t.Helper()
	th, err := config.ResolvePreset("balanced")
	if err != nil {
		t.Fatal(err)
	}
	return NewClassifier(th)
}

func TestClassify_RSIOversoldWithVolume(t *testing.T) {
	c := newBalanced(t)
	r := neutralRow()
	r.RSI = 25
	r.RSIOversold = true
	r.VolumeRatio = 1.5

	sig := c.Classify("AAPL", &r, model.Flat)
	if !sig.Buy {
		t.Fatal("expected buy signal")
	}
	if !strings.Contains(sig.BuyReason, "RSI") {
		t.Errorf("expected reason to name the RSI rule, got %q", sig.BuyReason)
	}
	if sig.Sell {
		t.Error("buy and sell must not fire together")
	}
}

func TestClassify_OversoldWithoutVolumeConfirmation(t *testing.T) {
	c := newBalanced(t)
	r := neutralRow()
	r.RSI = 25
	r.RSIOversold = true
	r.VolumeRatio = 1.0 // below the balanced 1.2x bar

	sig := c.Classify("AAPL", &r, model.Flat)
	if sig.Buy {
		t.Error("oversold without volume surge must not trigger a buy")
	}
}

func TestClassify_WilliamsOversoldWithVolume(t *testing.T) {
	c := newBalanced(t)
	r := neutralRow()
	r.WilliamsR = -85
	r.WilliamsOversold = true
	r.VolumeRatio = 1.3

	sig := c.Classify("MSFT", &r, model.Flat)
	if !sig.Buy {
		t.Fatal("expected buy signal")
	}
	if !strings.Contains(sig.BuyReason, "Williams") {
		t.Errorf("expected reason to name the Williams rule, got %q", sig.BuyReason)
	}
}

func TestClassify_DiscountRebound(t *testing.T) {
	c := newBalanced(t)

	r := neutralRow()
	r.MARatio = 0.75
	r.MAOversold = true
	r.Close = 100
	r.PrevClose = 98
	r.VolumeRatio = 1.15

	sig := c.Classify("NVDA", &r, model.Flat)
	if !sig.Buy {
		t.Fatal("expected rebound buy signal")
	}

	// Same discount but still falling: no entry.
	r.PrevClose = 101
	sig = c.Classify("NVDA", &r, model.Flat)
	if sig.Buy {
		t.Error("discount without a rebound close must not trigger a buy")
	}
}

func TestClassify_MultipleRulesJoinReasons(t *testing.T) {
	c := newBalanced(t)
	r := neutralRow()
	r.RSI = 25
	r.RSIOversold = true
	r.WilliamsR = -85
	r.WilliamsOversold = true
	r.VolumeRatio = 1.5

	sig := c.Classify("AAPL", &r, model.Flat)
	if !sig.Buy {
		t.Fatal("expected buy signal")
	}
	if !strings.Contains(sig.BuyReason, ", ") {
		t.Errorf("expected joined reasons, got %q", sig.BuyReason)
	}
}

func TestClassify_SellRules(t *testing.T) {
	c := newBalanced(t)

	tests := []struct {
		name   string
		mutate func(*model.IndicatorRow)
		want   string
	}{
		{
			name:   "rsi overbought",
			mutate: func(r *model.IndicatorRow) { r.RSI = 70; r.RSIOverbought = true },
			want:   "RSI",
		},
		{
			name:   "williams overbought",
			mutate: func(r *model.IndicatorRow) { r.WilliamsR = -10; r.WilliamsOverbought = true },
			want:   "Williams",
		},
		{
			name:   "stretched above long average",
			mutate: func(r *model.IndicatorRow) { r.MARatio = 1.10 },
			want:   "above",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := neutralRow()
			tt.mutate(&r)
			sig := c.Classify("AAPL", &r, model.Held)
			if !sig.Sell {
				t.Fatal("expected sell signal")
			}
			if !strings.Contains(sig.SellReason, tt.want) {
				t.Errorf("expected reason containing %q, got %q", tt.want, sig.SellReason)
			}
		})
	}
}

func TestClassify_StateGating(t *testing.T) {
	c := newBalanced(t)

	buy := neutralRow()
	buy.RSI = 25
	buy.RSIOversold = true
	buy.VolumeRatio = 1.5
	if sig := c.Classify("AAPL", &buy, model.Held); sig.Buy {
		t.Error("buy rules must not fire while a position is held")
	}

	sell := neutralRow()
	sell.RSI = 70
	sell.RSIOverbought = true
	if sig := c.Classify("AAPL", &sell, model.Flat); sig.Sell {
		t.Error("sell rules must not fire without a position")
	}
}

func TestClassify_InvalidRow(t *testing.T) {
	c := newBalanced(t)
	r := neutralRow()
	r.RSI = math.NaN()
	r.RSIOversold = true
	r.VolumeRatio = 2.0

	sig := c.Classify("AAPL", &r, model.Flat)
	if sig.Buy || sig.Sell {
		t.Error("a row with undefined indicators must yield no signal")
	}
}

func TestClassify_NeutralRowNoSignal(t *testing.T) {
	c := newBalanced(t)
	r := neutralRow()
	for _, state := range []model.PositionState{model.Flat, model.Held} {
		sig := c.Classify("AAPL", &r, state)
		if sig.Buy || sig.Sell {
			t.Errorf("state %v: neutral row produced a signal", state)
		}
	}
}
