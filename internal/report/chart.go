// Package report turns the per-year sector table into a two-panel chart:
// share of funding per year and committed amount per year, one trace per
// sector.
package report

import (
	"fmt"
	"sort"

	"grantstats/internal/core"
)

// Titles shown on the rendered report.
const (
	ReportTitle       = "Global Sector Trends Analysis"
	PercentPanelTitle = "Percentage Share of Funding by Sector Per Year"
	AmountPanelTitle  = "Funding by Sector Over the Years"
	YearAxisTitle     = "Year"
	PercentAxisTitle  = "Percentage (%)"
	AmountAxisTitle   = "Amount Committed ($)"
)

// Point is one plotted year of a trace. Percentage is absent when the
// year's total was zero.
type Point struct {
	Year          int
	Percentage    float64
	HasPercentage bool
	Amount        float64
}

// Trace is the series of one sector.
type Trace struct {
	Sector string
	Color  string
	Points []Point
}

// Panel describes one of the two stacked plots.
type Panel struct {
	Title      string
	YTitle     string
	Ticks      []Tick
	Max        float64
	ShowLegend bool
}

// Chart is everything the renderers need.
type Chart struct {
	Title   string
	XTitle  string
	Years   []int
	Traces  []Trace
	Percent Panel
	Amount  Panel
	// Skipped counts rows left out because their year is unknown.
	Skipped int
}

// BuildChart groups the per-year table into one trace per sector, in order
// of first appearance. Rows with an unknown year are not plotted.
func BuildChart(t core.Table, p Palette) (Chart, error) {
	if t.Kind != core.GlobalSectorsYear {
		return Chart{}, fmt.Errorf("%w: report needs %s, got %q", core.ErrUnknownTable, core.GlobalSectorsYear, t.Kind)
	}

	c := Chart{Title: ReportTitle, XTitle: YearAxisTitle}
	index := make(map[string]int)
	years := make(map[int]bool)
	var maxAmount, maxPercent float64

	for _, r := range t.Rows {
		if !r.Year.Known() {
			c.Skipped++
			continue
		}
		i, ok := index[r.Sector]
		if !ok {
			i = len(c.Traces)
			index[r.Sector] = i
			c.Traces = append(c.Traces, Trace{Sector: r.Sector, Color: p.ColorFor(r.Sector)})
		}

		pt := Point{Year: r.Year.Value(), Amount: r.Amount.InexactFloat64()}
		if r.Percentage.Valid {
			pt.Percentage = r.Percentage.Decimal.InexactFloat64()
			pt.HasPercentage = true
			if pt.Percentage > maxPercent {
				maxPercent = pt.Percentage
			}
		}
		if pt.Amount > maxAmount {
			maxAmount = pt.Amount
		}
		c.Traces[i].Points = append(c.Traces[i].Points, pt)
		years[pt.Year] = true
	}

	for y := range years {
		c.Years = append(c.Years, y)
	}
	sort.Ints(c.Years)
	for i := range c.Traces {
		pts := c.Traces[i].Points
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].Year < pts[b].Year })
	}

	c.Percent = Panel{
		Title:      PercentPanelTitle,
		YTitle:     PercentAxisTitle,
		Ticks:      PercentTicks(maxPercent),
		ShowLegend: true,
	}
	c.Percent.Max = axisMax(c.Percent.Ticks, maxPercent)
	c.Amount = Panel{
		Title:  AmountPanelTitle,
		YTitle: AmountAxisTitle,
		Ticks:  AmountTicks(maxAmount),
	}
	c.Amount.Max = axisMax(c.Amount.Ticks, maxAmount)
	return c, nil
}

// Sectors lists the trace names in legend order.
func (c Chart) Sectors() []string {
	out := make([]string, len(c.Traces))
	for i, t := range c.Traces {
		out[i] = t.Sector
	}
	return out
}

// YearRange returns the x extent, padded when only one year is present.
func (c Chart) YearRange() (float64, float64) {
	if len(c.Years) == 0 {
		return 0, 1
	}
	lo, hi := float64(c.Years[0]), float64(c.Years[len(c.Years)-1])
	if lo == hi {
		return lo - 1, hi + 1
	}
	return lo, hi
}

func axisMax(ticks []Tick, max float64) float64 {
	if len(ticks) > 0 && ticks[len(ticks)-1].Value > max {
		max = ticks[len(ticks)-1].Value
	}
	if max <= 0 {
		return 1
	}
	return max
}
