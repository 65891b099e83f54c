package report

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	panelWidth  = 1000
	panelHeight = 450
)

var errNoTraces = errors.New("chart has no plottable traces")

// panelChart lays out one panel as a go-chart line chart. Points without a
// value for the panel are left out of the series. Every text label goes
// through label, since the SVG renderer writes text verbatim.
func panelChart(c Chart, p Panel, value func(Point) (float64, bool), label func(string) string) (*chart.Chart, error) {
	var series []chart.Series
	for _, t := range c.Traces {
		var xs, ys []float64
		for _, pt := range t.Points {
			if v, ok := value(pt); ok {
				xs = append(xs, float64(pt.Year))
				ys = append(ys, v)
			}
		}
		if len(xs) == 0 {
			continue
		}
		// go-chart needs at least two values per series
		if len(xs) == 1 {
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		col := drawing.ColorFromHex(strings.TrimPrefix(t.Color, "#"))
		series = append(series, chart.ContinuousSeries{
			Name:    label(t.Sector),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				DotColor:    col,
				DotWidth:    3,
			},
		})
	}
	if len(series) == 0 {
		return nil, errNoTraces
	}

	xMin, xMax := c.YearRange()
	var xTicks []chart.Tick
	for _, y := range c.Years {
		xTicks = append(xTicks, chart.Tick{Value: float64(y), Label: label(strconv.Itoa(y))})
	}
	var yTicks []chart.Tick
	for _, t := range p.Ticks {
		yTicks = append(yTicks, chart.Tick{Value: t.Value, Label: label(t.Label)})
	}

	ch := &chart.Chart{
		Title:  label(p.Title),
		Width:  panelWidth,
		Height: panelHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  label(c.XTitle),
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
			Ticks: xTicks,
		},
		YAxis: chart.YAxis{
			Name:  label(p.YTitle),
			Range: &chart.ContinuousRange{Min: 0, Max: p.Max},
			Ticks: yTicks,
		},
		Series: series,
	}
	if p.ShowLegend {
		ch.Elements = []chart.Renderable{chart.Legend(ch)}
	}
	return ch, nil
}

func percentValue(pt Point) (float64, bool) { return pt.Percentage, pt.HasPercentage }

func amountValue(pt Point) (float64, bool) { return pt.Amount, true }

func plainLabel(s string) string { return s }

func (c Chart) panels(label func(string) string) ([2]*chart.Chart, error) {
	var out [2]*chart.Chart
	var err error
	if out[0], err = panelChart(c, c.Percent, percentValue, label); err != nil {
		return out, fmt.Errorf("percentage panel: %w", err)
	}
	if out[1], err = panelChart(c, c.Amount, amountValue, label); err != nil {
		return out, fmt.Errorf("amount panel: %w", err)
	}
	return out, nil
}

// RenderSVG writes both panels as consecutive SVG documents. Labels are
// escaped so the output can be embedded in HTML as is.
func RenderSVG(w io.Writer, c Chart) error {
	panels, err := c.panels(html.EscapeString)
	if err != nil {
		return err
	}
	for _, p := range panels {
		if err := p.Render(chart.SVG, w); err != nil {
			return fmt.Errorf("render svg: %w", err)
		}
	}
	return nil
}

// RenderPNG writes both panels stacked into a single PNG image.
func RenderPNG(w io.Writer, c Chart) error {
	panels, err := c.panels(plainLabel)
	if err != nil {
		return err
	}

	var imgs []image.Image
	height, width := 0, 0
	for _, p := range panels {
		var buf bytes.Buffer
		if err := p.Render(chart.PNG, &buf); err != nil {
			return fmt.Errorf("render png: %w", err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			return fmt.Errorf("decode panel: %w", err)
		}
		imgs = append(imgs, img)
		height += img.Bounds().Dy()
		if img.Bounds().Dx() > width {
			width = img.Bounds().Dx()
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	y := 0
	for _, img := range imgs {
		b := img.Bounds()
		draw.Draw(out, image.Rect(0, y, b.Dx(), y+b.Dy()), img, b.Min, draw.Over)
		y += b.Dy()
	}
	return png.Encode(w, out)
}
