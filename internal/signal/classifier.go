// Package signal converts indicator rows into buy/sell decisions. The
// triggers are kept as explicit named rules so reasons fall out of which
// rules fired and new triggers can be added without touching existing ones.
package signal

import (
	"strings"

	"github.com/dev-minimalism/us-bnf-strategy/internal/config"
	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

const (
	// Profit-take level on trend extension: close 10% above the long EMA.
	maOverboughtRatio = 1.10
	// Rule-3 entries use a lower volume bar than the preset threshold.
	reboundVolumeFloor = 1.1
)

// Rule is one independent trigger. Any firing rule is sufficient.
type Rule struct {
	Name string
	Fire func(r *model.IndicatorRow) bool
}

// Classifier evaluates the buy and sell rule lists for one resolved preset.
type Classifier struct {
	thresholds config.Thresholds
	buyRules   []Rule
	sellRules  []Rule
}

// NewClassifier builds a Classifier for the given threshold set.
func NewClassifier(th config.Thresholds) *Classifier {
	c := &Classifier{thresholds: th}

	c.buyRules = []Rule{
		{
			Name: "RSI oversold + volume surge",
			Fire: func(r *model.IndicatorRow) bool {
				return r.RSIOversold && r.VolumeRatio > th.VolumeThreshold
			},
		},
		{
			Name: "Williams %R oversold + volume surge",
			Fire: func(r *model.IndicatorRow) bool {
				return r.WilliamsOversold && r.VolumeRatio > th.VolumeThreshold
			},
		},
		{
			Name: "deep discount to 25-day average + rebound",
			Fire: func(r *model.IndicatorRow) bool {
				return r.MAOversold && r.Close > r.PrevClose && r.VolumeRatio > reboundVolumeFloor
			},
		},
	}

	c.sellRules = []Rule{
		{
			Name: "RSI overbought",
			Fire: func(r *model.IndicatorRow) bool { return r.RSIOverbought },
		},
		{
			Name: "Williams %R overbought",
			Fire: func(r *model.IndicatorRow) bool { return r.WilliamsOverbought },
		},
		{
			Name: "10% above 25-day average",
			Fire: func(r *model.IndicatorRow) bool { return r.MARatio >= maOverboughtRatio },
		},
	}

	return c
}

// Classify evaluates one row against the current position state. Buy rules
// run only when Flat, sell rules only when Held; invalid rows yield a signal
// with neither flag set. Forced time-exits are the lifecycle's business, not
// the classifier's.
func (c *Classifier) Classify(symbol string, r *model.IndicatorRow, state model.PositionState) model.Signal {
	sig := model.Signal{
		Symbol:      symbol,
		Date:        r.Time,
		Price:       r.Close,
		RSI:         r.RSI,
		WilliamsR:   r.WilliamsR,
		VolumeRatio: r.VolumeRatio,
		MARatio:     r.MARatio,
	}
	if !r.Valid() {
		return sig
	}

	switch state {
	case model.Flat:
		if fired := firedNames(c.buyRules, r); len(fired) > 0 {
			sig.Buy = true
			sig.BuyReason = strings.Join(fired, ", ")
		}
	case model.Held:
		if fired := firedNames(c.sellRules, r); len(fired) > 0 {
			sig.Sell = true
			sig.SellReason = strings.Join(fired, ", ")
		}
	}
	return sig
}

// Thresholds returns the resolved threshold set the classifier was built with.
func (c *Classifier) Thresholds() config.Thresholds {
	return c.thresholds
}

func firedNames(rules []Rule, r *model.IndicatorRow) []string {
	var fired []string
	for _, rule := range rules {
		if rule.Fire(r) {
			fired = append(fired, rule.Name)
		}
	}
	return fired
}
