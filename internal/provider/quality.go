package provider

import (
	"errors"
	"fmt"
	"math"

	"github.com/dev-minimalism/us-bnf-strategy/internal/model"
)

// ErrDataQuality marks a symbol rejected by the quality gate.
var ErrDataQuality = errors.New("data quality")

const (
	maxMissingCloseFraction = 0.10
	minSaneMeanPrice        = 1.0
	maxSaneMeanPrice        = 10000.0
)

// ValidateQuality rejects series with more than 10% missing closes or a mean
// close outside the sane price band.
func ValidateQuality(symbol string, bars []model.OHLCV) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: %s: empty series", ErrDataQuality, symbol)
	}

	missing := 0
	var sum float64
	valid := 0
	for _, b := range bars {
		if b.Close <= 0 || math.IsNaN(b.Close) {
			missing++
			continue
		}
		sum += b.Close
		valid++
	}
	if float64(missing) > float64(len(bars))*maxMissingCloseFraction {
		return fmt.Errorf("%w: %s: %d of %d closes missing", ErrDataQuality, symbol, missing, len(bars))
	}
	if valid == 0 {
		return fmt.Errorf("%w: %s: no usable closes", ErrDataQuality, symbol)
	}
	meanClose := sum / float64(valid)
	if meanClose < minSaneMeanPrice || meanClose > maxSaneMeanPrice {
		return fmt.Errorf("%w: %s: mean close $%.2f outside sane band", ErrDataQuality, symbol, meanClose)
	}
	return nil
}
