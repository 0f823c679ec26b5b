// Package indicator derives the technical indicators the BNF counter-trend
// strategy reads from a raw daily bar series.
package indicator

import (
	"errors"
	"fmt"
	"math"

	"github.com/dev-minimalism/us-bnf-strategy/internal/config"
	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

// ErrInsufficientHistory is returned when the series is shorter than the
// largest configured period. Callers skip the symbol, never abort the run.
var ErrInsufficientHistory = errors.New("insufficient history")

// Params holds the indicator periods. The warm-up requirement is the largest
// of them.
type Params struct {
	RSIPeriod      int
	WilliamsPeriod int
	EMAShort       int
	EMALong        int
	VolumeMAPeriod int
}

// DefaultParams returns the periods the strategy was designed around:
// RSI(14), Williams %R(14), EMA 20/25, 20-day volume average.
func DefaultParams() Params {
	return Params{
		RSIPeriod:      14,
		WilliamsPeriod: 14,
		EMAShort:       20,
		EMALong:        25,
		VolumeMAPeriod: 20,
	}
}

// MinHistory returns the minimum number of bars required for any indicator
// to be defined.
func (p Params) MinHistory() int {
	min := p.RSIPeriod
	if p.WilliamsPeriod > min {
		min = p.WilliamsPeriod
	}
	if p.EMALong > min {
		min = p.EMALong
	}
	return min
}

// Compute annotates a date-ordered bar series with indicator values and the
// threshold flags for the given preset. Rows inside the warm-up window carry
// NaN indicators. The function is pure: identical input yields identical
// output.
func Compute(bars []model.OHLCV, p Params, th config.Thresholds) ([]model.IndicatorRow, error) {
	if len(bars) < p.MinHistory() {
		return nil, fmt.Errorf("%w: %d bars, need %d", ErrInsufficientHistory, len(bars), p.MinHistory())
	}

	rows := make([]model.IndicatorRow, len(bars))
	emaShort := computeEMA(bars, p.EMAShort)
	emaLong := computeEMA(bars, p.EMALong)

	for i := range bars {
		r := &rows[i]
		r.OHLCV = bars[i]
		r.RSI = rollingRSI(bars, i, p.RSIPeriod)
		r.WilliamsR = williamsR(bars, i, p.WilliamsPeriod)
		r.EMAShort = emaShort[i]
		r.EMALong = emaLong[i]
		r.VolumeRatio = volumeRatio(bars, i, p.VolumeMAPeriod)
		r.MARatio = bars[i].Close / emaLong[i]
		if i > 0 {
			r.PrevClose = bars[i-1].Close
		} else {
			r.PrevClose = math.NaN()
		}

		r.RSIOversold = r.RSI <= th.RSIOversold
		r.RSIOverbought = r.RSI >= th.RSIOverbought
		r.WilliamsOversold = r.WilliamsR <= th.WilliamsOversold
		r.WilliamsOverbought = r.WilliamsR >= th.WilliamsOverbought
		r.MAOversold = r.MARatio <= th.MAOversoldRatio
	}
	return rows, nil
}

// rollingRSI computes RSI at index i from the trailing simple means of gains
// and losses over the last `period` close-to-close changes. A window with
// losses but no gains gives 0, a window with gains but no losses gives 100,
// and a window with neither (flat prices) is undefined.
func rollingRSI(bars []model.OHLCV, i, period int) float64 {
	if i < period {
		return math.NaN()
	}
	var gain, loss float64
	for j := i - period + 1; j <= i; j++ {
		change := bars[j].Close - bars[j-1].Close
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	if avgLoss == 0 {
		if avgGain == 0 {
			return math.NaN() // no movement at all
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// williamsR computes Williams %R at index i over the trailing window.
// Undefined when the window's high equals its low.
func williamsR(bars []model.OHLCV, i, period int) float64 {
	if i < period-1 {
		return math.NaN()
	}
	highest := math.Inf(-1)
	lowest := math.Inf(1)
	for j := i - period + 1; j <= i; j++ {
		if bars[j].High > highest {
			highest = bars[j].High
		}
		if bars[j].Low < lowest {
			lowest = bars[j].Low
		}
	}
	if highest == lowest {
		return math.NaN()
	}
	return -100.0 * (highest - bars[i].Close) / (highest - lowest)
}

// computeEMA returns the exponential moving average series for the given
// span, seeded from the first close.
func computeEMA(bars []model.OHLCV, span int) []float64 {
	ema := make([]float64, len(bars))
	alpha := 2.0 / (float64(span) + 1.0)
	ema[0] = bars[0].Close
	for i := 1; i < len(bars); i++ {
		ema[i] = alpha*bars[i].Close + (1-alpha)*ema[i-1]
	}
	return ema
}

// volumeRatio divides the current volume by the trailing simple average.
// Defined as 1 when there is no volume data in the window.
func volumeRatio(bars []model.OHLCV, i, period int) float64 {
	if i < period-1 {
		return math.NaN()
	}
	var sum float64
	for j := i - period + 1; j <= i; j++ {
		sum += bars[j].Volume
	}
	avg := sum / float64(period)
	if avg == 0 {
		return 1.0
	}
	return bars[i].Volume / avg
}
