package report

import (
	"math"
	"testing"
)

func TestAmountTicks(t *testing.T) {
	ticks := AmountTicks(3.2e9)
	if len(ticks) != 8 {
		t.Fatalf("expected 8 ticks (0 .. 3.5e9), got %d: %+v", len(ticks), ticks)
	}
	if ticks[0].Value != 0 || ticks[0].Label != "$0" {
		t.Errorf("first tick = %+v", ticks[0])
	}
	if last := ticks[len(ticks)-1]; last.Value != 3.5e9 || last.Label != "$3.5B" {
		t.Errorf("last tick = %+v", last)
	}
	if ticks[2].Value != 1e9 || ticks[2].Label != "$1B" {
		t.Errorf("third tick = %+v, want $1B", ticks[2])
	}
}

func TestAmountTicksStep(t *testing.T) {
	tests := []struct {
		max  float64
		step float64
	}{
		{5e9, 1e9},
		{4e9, 1e9},
		{2e9, 5e8},
		{1.5e9, 2.5e8},
		{5e8, 1e8},
		{4e8, 1e8},
		{3e8, 5e7},
		{1, 5e7},
	}
	for _, tt := range tests {
		ticks := AmountTicks(tt.max)
		if len(ticks) < 2 {
			t.Fatalf("max %g: expected at least two ticks, got %+v", tt.max, ticks)
		}
		if got := ticks[1].Value; got != tt.step {
			t.Errorf("max %g: step = %g, want %g", tt.max, got, tt.step)
		}
		if last := ticks[len(ticks)-1].Value; last < tt.max || last >= tt.max+tt.step {
			t.Errorf("max %g: last tick %g outside [max, max+step)", tt.max, last)
		}
	}
}

func TestAmountTicksEmpty(t *testing.T) {
	for _, max := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		if ticks := AmountTicks(max); len(ticks) != 0 {
			t.Errorf("AmountTicks(%g) = %+v, want none", max, ticks)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{5e8, "$500M"},
		{1e9, "$1B"},
		{1.25e9, "$1.25B"},
		{2.5e8, "$250M"},
		{5e7, "$50M"},
		{1500, "$1.5K"},
		{999, "$999"},
		{-2e6, "-$2M"},
	}
	for _, tt := range tests {
		if got := FormatUSD(tt.in); got != tt.want {
			t.Errorf("FormatUSD(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercentTicks(t *testing.T) {
	ticks := PercentTicks(75)
	if last := ticks[len(ticks)-1]; last.Value != 80 || last.Label != "80" {
		t.Errorf("last tick = %+v, want 80", last)
	}
	small := PercentTicks(12)
	if small[1].Value != 5 {
		t.Errorf("small range step = %g, want 5", small[1].Value)
	}
}
