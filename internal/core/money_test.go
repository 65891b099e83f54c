package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1500000", "1500000", true},
		{"$1,250,000.50", "1250000.5", true},
		{" 300 ", "300", true},
		{"", "0", true},
		{"-2500", "-2500", true},
		{"1e6", "1000000", true},
		{"abc", "", false},
		{"1.2.3", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestPercentage(t *testing.T) {
	cases := []struct {
		part, total int64
		want        string
	}{
		{300, 400, "75.00"},
		{100, 400, "25.00"},
		{1, 3, "33.33"},
		{2, 3, "66.67"},
		{0, 50, "0.00"},
		{10, 0, ""},
	}
	for _, tc := range cases {
		got := FormatPercentage(Percentage(decimal.NewFromInt(tc.part), decimal.NewFromInt(tc.total)))
		if got != tc.want {
			t.Fatalf("%d/%d: got %q, want %q", tc.part, tc.total, got, tc.want)
		}
	}
}

func TestParsePercentage(t *testing.T) {
	p, err := ParsePercentage("25.50")
	if err != nil || !p.Valid || p.Decimal.String() != "25.5" {
		t.Fatalf("unexpected %v (err=%v)", p, err)
	}
	p, err = ParsePercentage("")
	if err != nil || p.Valid {
		t.Fatalf("expected undefined percentage, got %v (err=%v)", p, err)
	}
	if _, err := ParsePercentage("n/a"); err == nil {
		t.Fatalf("expected error")
	}
}
