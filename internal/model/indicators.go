package model

import "math"

// IndicatorRow is one bar annotated with the indicators the strategy reads.
// Rows inside the warm-up window carry NaN indicators and report Valid() false.
type IndicatorRow struct {
	OHLCV

	RSI         float64 // 0~100
	WilliamsR   float64 // -100~0
	EMAShort    float64
	EMALong     float64
	VolumeRatio float64 // volume / trailing average volume
	MARatio     float64 // close / EMALong
	PrevClose   float64 // NaN for the first bar

	// Threshold flags, evaluated at the configured preset levels.
	RSIOversold        bool
	RSIOverbought      bool
	WilliamsOversold   bool
	WilliamsOverbought bool
	MAOversold         bool
}

// Valid reports whether the row's indicators are defined. Invalid rows must be
// skipped by simulators without a state transition.
func (r *IndicatorRow) Valid() bool {
	return !math.IsNaN(r.RSI) && !math.IsNaN(r.WilliamsR) && !math.IsNaN(r.MARatio)
}
