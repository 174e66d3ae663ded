package models

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeatmapJSONMissingCells(t *testing.T) {
	h := &Heatmap{
		Countries: []string{"France", "Japan"},
		MeatTypes: []string{"beef", "pig"},
		Values:    [][]float64{{25.456, 0}, {math.NaN(), 12}},
	}

	out, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"countries": ["France", "Japan"],
		"meat_types": ["beef", "pig"],
		"values": [[25.456, 0], [null, 12]],
		"labels": [["25.46", "0.00"], ["", "12.00"]]
	}`, string(out))
}

func TestHeatmapJSONEmpty(t *testing.T) {
	out, err := json.Marshal(Heatmap{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"countries": [], "meat_types": [], "values": [], "labels": []}`, string(out))
}

func TestGroupedFrame(t *testing.T) {
	g := &GroupedBar{Rows: []GroupedRow{
		{Region: "Asia", SubRegion: "Eastern Asia", Country: "Japan", Year: 1990, MeatType: "pig"},
		{Region: "Asia", SubRegion: "Eastern Asia", Country: "Japan", Year: 1991, MeatType: "pig"},
	}}
	frame := g.Frame(1991)
	require.Len(t, frame, 1)
	assert.Equal(t, "Eastern Asia", frame[0].Group("Sub-region"))
	assert.Equal(t, "Asia", frame[0].Group("Region"))
	assert.Empty(t, g.Frame(2000))
}
