package config

import "fmt"

// Thresholds is a resolved strategy parameter set. Presets differ only in
// these numbers, never in the signal algorithm.
type Thresholds struct {
	Preset             string
	RSIOversold        float64
	RSIOverbought      float64
	WilliamsOversold   float64
	WilliamsOverbought float64
	VolumeThreshold    float64
	MAOversoldRatio    float64 // entry: close/EMA-long at or below this
}

var presets = map[string]Thresholds{
	"aggressive": {
		Preset:             "aggressive",
		RSIOversold:        40,
		RSIOverbought:      60,
		WilliamsOversold:   -70,
		WilliamsOverbought: -30,
		VolumeThreshold:    1.1,
		MAOversoldRatio:    0.85,
	},
	"balanced": {
		Preset:             "balanced",
		RSIOversold:        35,
		RSIOverbought:      65,
		WilliamsOversold:   -75,
		WilliamsOverbought: -25,
		VolumeThreshold:    1.2,
		MAOversoldRatio:    0.80,
	},
	"conservative": {
		Preset:             "conservative",
		RSIOversold:        30,
		RSIOverbought:      70,
		WilliamsOversold:   -80,
		WilliamsOverbought: -20,
		VolumeThreshold:    1.3,
		MAOversoldRatio:    0.75,
	},
}

// ResolvePreset maps a preset name to its threshold set.
func ResolvePreset(name string) (Thresholds, error) {
	th, ok := presets[name]
	if !ok {
		return Thresholds{}, fmt.Errorf("unknown strategy preset %q (want conservative, balanced or aggressive)", name)
	}
	return th, nil
}
