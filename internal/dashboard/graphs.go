package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Charts are drawn in braille: every terminal cell is a 2 wide by 4 tall
// dot grid, so a width x height chart has 2*width samples across and
// 4*height levels of vertical resolution. A cell's glyph is U+2800 plus
// one bit per raised dot.
const brailleBase = '⠀'

// dotBit[row][col] is the bit for the dot at row (top down) and col.
var dotBit = [4][2]uint8{{0, 3}, {1, 4}, {2, 5}, {6, 7}}

// seriesRange returns the minimum and maximum over every series.
func seriesRange(series [][]float64) (minVal, maxVal float64, ok bool) {
	minVal, maxVal = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
			ok = true
		}
	}
	if !ok {
		return 0, 0, false
	}
	return minVal, maxVal, true
}

// level maps val onto 0..levels-1 within [lo, hi]. A flat series sits
// in the middle.
func level(val, lo, hi float64, levels int) int {
	frac := 0.5
	if hi > lo {
		frac = (val - lo) / (hi - lo)
	}
	n := int(frac * float64(levels-1))
	return max(0, min(n, levels-1))
}

// RenderLineChart draws each series as a braille line on a shared time axis
// and vertical scale. Series i is colored SeriesColor(i); where lines cross
// the later series wins the cell. Returns "" when there is nothing to plot.
func RenderLineChart(series [][]float64, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	minVal, maxVal, ok := seriesRange(series)
	if !ok {
		return ""
	}

	totalDots := height * 4
	targetPoints := width * 2

	grid := make([][]rune, height)
	owner := make([][]int, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		owner[i] = make([]int, width)
		for j := range grid[i] {
			grid[i][j] = brailleBase
			owner[i][j] = -1
		}
	}

	plot := func(x, dot, s int) {
		row := height - 1 - dot/4
		subRow := 3 - dot%4
		col := x / 2
		if row < 0 || col >= width {
			return
		}
		grid[row][col] |= rune(1 << dotBit[subRow][x%2])
		owner[row][col] = s
	}

	for s, data := range series {
		if len(data) == 0 {
			continue
		}
		points := resampleData(data, targetPoints)
		prev := -1
		for x, val := range points {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				prev = -1
				continue
			}
			dot := level(val, minVal, maxVal, totalDots)
			plot(x, dot, s)

			// Join steep segments so the line stays continuous.
			if prev >= 0 {
				lo, hi := prev, dot
				if lo > hi {
					lo, hi = hi, lo
				}
				for d := lo + 1; d < hi; d++ {
					plot(x, d, s)
				}
			}
			prev = dot
		}
	}

	lines := make([]string, height)
	for r, row := range grid {
		var b strings.Builder
		for c, ch := range row {
			if owner[r][c] < 0 {
				b.WriteRune(ch)
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(SeriesColor(owner[r][c])).Render(string(ch)))
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}

// RenderLegend renders "● name" entries in series colors.
func RenderLegend(names []string, width int) string {
	var parts []string
	for i, n := range names {
		parts = append(parts, lipgloss.NewStyle().Foreground(SeriesColor(i)).Render("● ")+LabelStyle.Render(n))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, "  "))
}

// FormatValue renders an axis value compactly: 950, 1.2k, 3.4M, 0.25.
func FormatValue(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.1fG", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	case abs == math.Trunc(abs):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// resampleData fits data to n points. Shrinking keeps the peak of each
// bucket so short spikes survive; growing interpolates linearly.
func resampleData(data []float64, n int) []float64 {
	switch {
	case len(data) == 0 || n <= 0:
		return nil
	case len(data) == n:
		return data
	}

	out := make([]float64, n)
	switch {
	case len(data) == 1:
		for i := range out {
			out[i] = data[0]
		}
	case len(data) > n:
		step := float64(len(data)) / float64(n)
		for i := range out {
			lo := int(float64(i) * step)
			hi := min(int(float64(i+1)*step), len(data))
			out[i] = peak(data[min(lo, hi-1):hi])
		}
	case n == 1:
		out[0] = data[len(data)-1]
	default:
		step := float64(len(data)-1) / float64(n-1)
		for i := range out {
			out[i] = lerpAt(data, float64(i)*step)
		}
	}
	return out
}

func peak(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// lerpAt reads data at a fractional index.
func lerpAt(data []float64, pos float64) float64 {
	i := int(pos)
	if i >= len(data)-1 {
		return data[len(data)-1]
	}
	f := pos - float64(i)
	return data[i]*(1-f) + data[i+1]*f
}
