package dashboard

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestRenderLineChart_Dimensions(t *testing.T) {
	chart := RenderLineChart([][]float64{{1, 2, 3, 4}, {4, 3, 2, 1}}, 20, 4)
	lines := strings.Split(chart, "\n")
	assert.Len(t, lines, 4)
	for _, l := range lines {
		assert.Equal(t, 20, lipgloss.Width(l))
	}
}

func TestRenderLineChart_Empty(t *testing.T) {
	assert.Empty(t, RenderLineChart(nil, 20, 4))
	assert.Empty(t, RenderLineChart([][]float64{{}}, 20, 4))
	assert.Empty(t, RenderLineChart([][]float64{{math.NaN()}}, 20, 4))
	assert.Empty(t, RenderLineChart([][]float64{{1}}, 0, 4))
}

func TestRenderLineChart_RisingLineEndsTopRight(t *testing.T) {
	chart := RenderLineChart([][]float64{{0, 10}}, 4, 2)
	lines := strings.Split(chart, "\n")
	top := []rune(lines[0])
	bottom := []rune(lines[1])
	assert.NotEqual(t, brailleBase, top[len(top)-1])
	assert.NotEqual(t, brailleBase, bottom[0])
}

func TestSeriesColor(t *testing.T) {
	for i := range SeriesPalette {
		assert.Equal(t, SeriesPalette[i], SeriesColor(i))
	}
	assert.Equal(t, ColorTextMuted, SeriesColor(len(SeriesPalette)))
	assert.Equal(t, ColorTextMuted, SeriesColor(-1))

	seen := map[lipgloss.Color]bool{}
	for _, c := range SeriesPalette {
		assert.False(t, seen[c], "palette repeats %s", c)
		seen[c] = true
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{950, "950"},
		{1200, "1.2k"},
		{3400000, "3.4M"},
		{2.5e9, "2.5G"},
		{0.25, "0.25"},
		{-1500, "-1.5k"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}

func TestResampleData(t *testing.T) {
	tests := []struct {
		name   string
		data   []float64
		target int
		want   []float64
	}{
		{name: "same size", data: []float64{1, 2}, target: 2, want: []float64{1, 2}},
		{name: "downsample keeps peaks", data: []float64{1, 9, 2, 3}, target: 2, want: []float64{9, 3}},
		{name: "upsample interpolates", data: []float64{0, 2}, target: 3, want: []float64{0, 1, 2}},
		{name: "single point", data: []float64{5}, target: 3, want: []float64{5, 5, 5}},
		{name: "empty", data: nil, target: 3, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resampleData(tt.data, tt.target))
		})
	}
}
