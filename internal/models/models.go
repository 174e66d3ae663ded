package models

import (
	"math"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

type MeatTotal struct {
	MeatType string  `json:"meat_type"`
	Total    float64 `json:"total"`
	Average  float64 `json:"average"`
}

// Heatmap is a dense country x meat matrix of mean consumption.
// Cells without observations hold NaN.
type Heatmap struct {
	Countries []string    `json:"countries"`
	MeatTypes []string    `json:"meat_types"`
	Values    [][]float64 `json:"values"`
}

// Missing reports whether the cell has no observations.
func (h *Heatmap) Missing(row, col int) bool {
	return math.IsNaN(h.Values[row][col])
}

// Labels returns the cell annotations, two decimals, "" for missing cells.
func (h *Heatmap) Labels() [][]string {
	labels := make([][]string, len(h.Values))
	for i, row := range h.Values {
		labels[i] = make([]string, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			labels[i][j] = decimal.NewFromFloat(v).StringFixed(2)
		}
	}
	return labels
}

// MarshalJSON encodes missing cells as null; JSON has no NaN.
func (h Heatmap) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(h.Values))
	for i, row := range h.Values {
		values[i] = make([]*float64, len(row))
		for j := range row {
			if math.IsNaN(row[j]) {
				continue
			}
			v := row[j]
			values[i][j] = &v
		}
	}
	countries, meats := h.Countries, h.MeatTypes
	if countries == nil {
		countries = []string{}
	}
	if meats == nil {
		meats = []string{}
	}
	return json.Marshal(struct {
		Countries []string     `json:"countries"`
		MeatTypes []string     `json:"meat_types"`
		Values    [][]*float64 `json:"values"`
		Labels    [][]string   `json:"labels"`
	}{countries, meats, values, h.Labels()})
}

type GroupedRow struct {
	Region           string  `json:"region"`
	SubRegion        string  `json:"sub_region"`
	Country          string  `json:"country"`
	Year             int     `json:"year"`
	MeatType         string  `json:"meat_type"`
	TotalConsumption float64 `json:"total_consumption"`
	TotalPopulation  float64 `json:"total_population"`
}

// Group returns the column the chart colours by.
func (r GroupedRow) Group(by string) string {
	switch by {
	case "Sub-region":
		return r.SubRegion
	case "Country":
		return r.Country
	default:
		return r.Region
	}
}

type GroupedBar struct {
	GroupBy string       `json:"group_by"`
	Years   []int        `json:"years"`
	Rows    []GroupedRow `json:"rows"`
	Total   int          `json:"total"`
}

// Frame returns the rows of one animation frame.
func (g *GroupedBar) Frame(year int) []GroupedRow {
	var rows []GroupedRow
	for _, r := range g.Rows {
		if r.Year == year {
			rows = append(rows, r)
		}
	}
	return rows
}

type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type FacetOptions struct {
	MeatTypes  []string   `json:"meat_types,omitempty"`
	Regions    []string   `json:"regions,omitempty"`
	SubRegions []string   `json:"sub_regions,omitempty"`
	Countries  []string   `json:"countries,omitempty"`
	YearBounds *YearRange `json:"year_bounds,omitempty"`
}

// Prompt asks the user to complete a facet before anything is rendered.
type Prompt struct {
	Facet   string `json:"facet"`
	Message string `json:"message"`
}

// RenderPlan is everything the dashboard needs to draw one interaction.
type RenderPlan struct {
	Mode         string       `json:"mode"`
	GroupBy      string       `json:"group_by"`
	Options      FacetOptions `json:"options"`
	Incomplete   *Prompt      `json:"incomplete,omitempty"`
	Empty        bool         `json:"empty"`
	Rows         int          `json:"rows"`
	Distribution []MeatTotal  `json:"distribution"`
	Heatmap      *Heatmap     `json:"heatmap,omitempty"`
	Grouped      *GroupedBar  `json:"grouped,omitempty"`
	Description  string       `json:"description,omitempty"`
}
