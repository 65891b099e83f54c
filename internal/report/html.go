package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	applog "grantstats/internal/log"
	"grantstats/web"
)

type payloadPoint struct {
	Year         int      `json:"year"`
	Percentage   *float64 `json:"percentage"`
	PercentLabel string   `json:"percent_label"`
	Amount       float64  `json:"amount"`
	AmountLabel  string   `json:"amount_label"`
}

type payloadTrace struct {
	Sector string         `json:"sector"`
	Color  string         `json:"color"`
	Points []payloadPoint `json:"points"`
}

type payloadPanel struct {
	Key        string  `json:"key"`
	Title      string  `json:"title"`
	YTitle     string  `json:"y_title"`
	Ticks      []Tick  `json:"ticks"`
	Max        float64 `json:"max"`
	ShowLegend bool    `json:"show_legend"`
}

type payload struct {
	Title  string         `json:"title"`
	XTitle string         `json:"x_title"`
	Years  []int          `json:"years"`
	Traces []payloadTrace `json:"traces"`
	Panels []payloadPanel `json:"panels"`
}

type page struct {
	Title    string
	Sectors  []string
	Data     payload
	Runtime  template.JS
	Styles   template.CSS
	Fallback template.HTML
}

func newPayload(c Chart) payload {
	p := payload{
		Title:  c.Title,
		XTitle: c.XTitle,
		Years:  c.Years,
		Panels: []payloadPanel{
			{Key: "percent", Title: c.Percent.Title, YTitle: c.Percent.YTitle, Ticks: c.Percent.Ticks, Max: c.Percent.Max, ShowLegend: c.Percent.ShowLegend},
			{Key: "amount", Title: c.Amount.Title, YTitle: c.Amount.YTitle, Ticks: c.Amount.Ticks, Max: c.Amount.Max, ShowLegend: c.Amount.ShowLegend},
		},
	}
	if p.Years == nil {
		p.Years = []int{}
	}
	p.Traces = make([]payloadTrace, 0, len(c.Traces))
	for _, t := range c.Traces {
		pt := payloadTrace{Sector: t.Sector, Color: t.Color, Points: make([]payloadPoint, 0, len(t.Points))}
		for _, x := range t.Points {
			pp := payloadPoint{Year: x.Year, Amount: x.Amount, AmountLabel: FormatUSD(x.Amount)}
			if x.HasPercentage {
				v := x.Percentage
				pp.Percentage = &v
				pp.PercentLabel = fmt.Sprintf("%.1f%%", v)
			}
			pt.Points = append(pt.Points, pp)
		}
		p.Traces = append(p.Traces, pt)
	}
	return p
}

// Render writes the chart as one self-contained HTML document. The script
// runtime and styles are inlined; a static SVG rendering is embedded for
// viewers without scripting.
func Render(w io.Writer, c Chart) error {
	tmpl, err := template.ParseFS(web.TemplatesFS, "templates/report.html")
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	runtime, err := web.StaticFS.ReadFile("static/chart.js")
	if err != nil {
		return fmt.Errorf("read chart runtime: %w", err)
	}
	styles, err := web.StaticFS.ReadFile("static/report.css")
	if err != nil {
		return fmt.Errorf("read styles: %w", err)
	}

	pg := page{
		Title:   c.Title,
		Sectors: c.Sectors(),
		Data:    newPayload(c),
		Runtime: template.JS(runtime),
		Styles:  template.CSS(styles),
	}

	var svg bytes.Buffer
	if err := RenderSVG(&svg, c); err != nil {
		applog.Default(applog.ComponentReport).Warn("Static chart fallback unavailable", applog.NewFields().
			WithOperation(applog.OpRender).
			WithError(err).
			WithErrorType(applog.ErrorTypeInternal).
			ToSlice()...)
	} else {
		pg.Fallback = template.HTML(svg.String())
	}

	if err := tmpl.ExecuteTemplate(w, "report.html", pg); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	return nil
}
