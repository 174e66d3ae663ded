package render

import (
	"errors"
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"meatdash/internal/models"
)

// ErrNothingToRender is returned for empty summaries; callers show a
// placeholder instead of a chart.
var ErrNothingToRender = errors.New("render: nothing to render")

const (
	width  = 900
	height = 700
)

var (
	background = drawing.ColorFromHex("F6F6F6")
	palette    = []drawing.Color{
		drawing.ColorFromHex("5F4690"), drawing.ColorFromHex("1D6996"),
		drawing.ColorFromHex("38A6A5"), drawing.ColorFromHex("0F8554"),
		drawing.ColorFromHex("73AF48"), drawing.ColorFromHex("EDAD08"),
		drawing.ColorFromHex("E17C05"), drawing.ColorFromHex("CC503E"),
		drawing.ColorFromHex("94346E"), drawing.ColorFromHex("6F4070"),
	}
)

// DistributionPNG draws average consumption per meat type.
func DistributionPNG(w io.Writer, totals []models.MeatTotal) error {
	if len(totals) == 0 {
		return ErrNothingToRender
	}
	bars := make([]chart.Value, 0, len(totals))
	for _, t := range totals {
		bars = append(bars, chart.Value{Label: t.MeatType, Value: t.Average})
	}
	return renderBars(w, "Meat consumption KG per capita", bars)
}

// GroupedFramePNG draws one year of the grouped bar chart. Bars are labelled
// "meat / group" and coloured by group.
func GroupedFramePNG(w io.Writer, g *models.GroupedBar, year int) error {
	if g == nil {
		return ErrNothingToRender
	}
	rows := g.Frame(year)
	if len(rows) == 0 {
		return ErrNothingToRender
	}

	colors := make(map[string]drawing.Color)
	bars := make([]chart.Value, 0, len(rows))
	for _, r := range rows {
		group := r.Group(g.GroupBy)
		col, ok := colors[group]
		if !ok {
			col = palette[len(colors)%len(palette)]
			colors[group] = col
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s / %s", r.MeatType, group),
			Value: r.TotalConsumption,
			Style: chart.Style{FillColor: col, StrokeColor: col},
		})
	}
	title := fmt.Sprintf("Meat consumption KG per capita by %s, %d", g.GroupBy, year)
	return renderBars(w, title, bars)
}

func renderBars(w io.Writer, title string, bars []chart.Value) error {
	top := 0.0
	for _, b := range bars {
		top = max(top, b.Value)
	}
	if top == 0 {
		top = 1
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     height,
		BarWidth:   max(8, (width-120)/len(bars)-10),
		Background: chart.Style{FillColor: background, Padding: chart.Box{Top: 40}},
		Canvas:     chart.Style{FillColor: background},
		YAxis: chart.YAxis{
			Name:  "Kg Per Capita",
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %q: %w", title, err)
	}
	return nil
}
