package report

import (
	"math"
	"strconv"
)

// Tick is one labelled axis position.
type Tick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// tickSteps maps a minimum axis maximum to the amount step used above it.
var tickSteps = []struct {
	min  float64
	step float64
}{
	{4e9, 1e9},
	{2e9, 5e8},
	{1e9, 2.5e8},
	{4e8, 1e8},
}

const defaultTickStep = 5e7

// AmountTicks returns dollar ticks from zero up to the first tick at or
// beyond max. No ticks are produced for a non-positive or NaN max.
func AmountTicks(max float64) []Tick {
	if math.IsNaN(max) || math.IsInf(max, 0) || max <= 0 {
		return nil
	}
	step := defaultTickStep
	for _, s := range tickSteps {
		if max >= s.min {
			step = s.step
			break
		}
	}

	var ticks []Tick
	for i := 0; ; i++ {
		v := float64(i) * step
		if v >= max+step {
			break
		}
		ticks = append(ticks, Tick{Value: v, Label: FormatUSD(v)})
	}
	return ticks
}

// PercentTicks returns ticks for a percentage axis reaching max.
func PercentTicks(max float64) []Tick {
	if math.IsNaN(max) || max <= 0 {
		max = 100
	}
	step := 10.0
	if max < 40 {
		step = 5
	}
	var ticks []Tick
	for v := 0.0; v < max+step; v += step {
		ticks = append(ticks, Tick{Value: v, Label: strconv.FormatFloat(v, 'f', -1, 64)})
	}
	return ticks
}

// FormatUSD abbreviates a dollar amount with a B, M or K unit and no
// insignificant trailing zeros: $0, $500M, $1B, $1.25B.
func FormatUSD(v float64) string {
	if v == 0 {
		return "$0"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	unit, suffix := 1.0, ""
	switch {
	case v >= 1e9:
		unit, suffix = 1e9, "B"
	case v >= 1e6:
		unit, suffix = 1e6, "M"
	case v >= 1e3:
		unit, suffix = 1e3, "K"
	}
	return sign + "$" + strconv.FormatFloat(v/unit, 'g', 6, 64) + suffix
}
