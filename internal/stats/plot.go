package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/verte-zerg/typemeter/internal/metrics"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

// Chart renders series as a braille line plot.
type Chart struct {
	Title  string
	Width  int
	Height int
	// Color forces ANSI colors even when the writer is not a terminal.
	Color bool
	// Shared plots every series on one y-range and labels the axis with values.
	// Otherwise each series is scaled independently and the axis shows percent of range.
	Shared bool
}

type yRange struct {
	lo, hi float64
}

type lineStyle struct {
	name   string
	period int
	on     int
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 4
	axisSeparator       = " │ "
	scaleNote           = "Scaled per series; see min/max below."
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var palette = []string{
	"\x1b[36m", // cyan
	"\x1b[35m", // magenta
	"\x1b[33m", // yellow
	"\x1b[32m", // green
	"\x1b[34m", // blue
}

// SessionSeries splits a session time series into WPM and accuracy series.
func SessionSeries(points []metrics.Point) []Series {
	wpm := make([]float64, len(points))
	acc := make([]float64, len(points))
	for i, p := range points {
		wpm[i] = p.WPM
		acc[i] = p.Accuracy
	}
	return []Series{{Name: "WPM", Values: wpm}, {Name: "Accuracy", Values: acc}}
}

// String renders the chart to a string. Colors are used only when Color is set.
func (c Chart) String(series []Series) string {
	var b strings.Builder
	_ = c.render(&b, series, c.Color)
	return b.String()
}

// Render writes the chart to w, enabling colors when w is a terminal.
func (c Chart) Render(w io.Writer, series []Series) error {
	return c.render(w, series, shouldUseColor(w, c.Color))
}

func (c Chart) render(w io.Writer, series []Series, useColor bool) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}
	height := c.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := c.Width
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	resampled := make([]Series, len(series))
	ranges := make([]yRange, len(series))
	for i, s := range series {
		resampled[i] = Series{Name: s.Name, Values: resample(s.Values, width)}
		ranges[i] = padRange(bounds(resampled[i].Values))
	}
	if c.Shared {
		shared := ranges[0]
		for _, r := range ranges[1:] {
			shared.lo = math.Min(shared.lo, r.lo)
			shared.hi = math.Max(shared.hi, r.hi)
		}
		for i := range ranges {
			ranges[i] = shared
		}
	}

	layers := make([]canvas, len(resampled))
	for i, s := range resampled {
		layers[i] = newCanvas(width, height)
		layers[i].plot(s.Values, ranges[i], lineStyles[i%len(lineStyles)])
	}

	var lines []string
	if c.Title != "" {
		lines = append(lines, c.Title)
	}
	if !c.Shared {
		lines = append(lines, scaleNote)
		for i, s := range resampled {
			lines = append(lines, fmt.Sprintf("%s: min=%.2f max=%.2f", s.Name, ranges[i].lo, ranges[i].hi))
		}
	}
	labels := c.axisLabels(height, ranges[0])
	for y := 0; y < height; y++ {
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", axisLabelWidth, labels[y], axisSeparator)
		for x := 0; x < width; x++ {
			mask, owner := compose(layers, x, y)
			ch := brailleRune(mask)
			if useColor && owner >= 0 {
				row.WriteString(palette[owner%len(palette)])
				row.WriteRune(ch)
				row.WriteString(colorReset)
				continue
			}
			row.WriteRune(ch)
		}
		lines = append(lines, row.String())
	}
	lines = append(lines, legend(resampled, useColor), "")
	return writeLines(w, lines)
}

func (c Chart) axisLabels(height int, r yRange) []string {
	labels := make([]string, height)
	top, mid, bottom := "100%", "50%", "0%"
	if c.Shared {
		top = fmt.Sprintf("%.0f", r.hi)
		mid = fmt.Sprintf("%.0f", (r.hi+r.lo)/2)
		bottom = fmt.Sprintf("%.0f", r.lo)
	}
	labels[0] = top
	if height > 2 {
		labels[height/2] = mid
	}
	if height > 1 {
		labels[height-1] = bottom
	}
	return labels
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := axisLabelWidth + utf8.RuneCountInString(axisSeparator)
	return max(totalWidth-axisWidth, minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", brailleRune(0x01), s.Name, lineStyles[i%len(lineStyles)].name)
		if useColor {
			label = palette[i%len(palette)] + label + colorReset
		}
		parts[i] = label
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// resample stretches or averages values to exactly width samples.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	switch {
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func bounds(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func padRange(lo, hi float64) yRange {
	if math.Abs(hi-lo) < 1e-9 {
		return yRange{lo: lo - 1, hi: hi + 1}
	}
	return yRange{lo: lo, hi: hi}
}

// canvas holds braille cells; each cell is 2 dots wide and 4 dots tall.
type canvas struct {
	cells  [][]uint8
	width  int
	height int
}

func newCanvas(width, height int) canvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return canvas{cells: cells, width: width, height: height}
}

func (c canvas) plot(values []float64, r yRange, style lineStyle) {
	dots := c.height * 4
	prevX, prevY := -1, -1
	for i, v := range values {
		pos := (v - r.lo) / (r.hi - r.lo)
		y := max(0, min(dots-1, int(math.Round((1-pos)*float64(dots-1)))))
		x := i * 2
		if prevX < 0 {
			if style.covers(x) {
				c.set(x, y)
			}
		} else {
			bresenham(prevX, prevY, x, y, func(px, py int) {
				if style.covers(px) {
					c.set(px, py)
				}
			})
		}
		prevX, prevY = x, y
	}
}

func (c canvas) set(x, y int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cy >= c.height || cx >= c.width {
		return
	}
	c.cells[cy][cx] |= dotMask(x%2, y%4)
}

func (ls lineStyle) covers(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

func compose(layers []canvas, x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, layer := range layers {
		m := layer.cells[y][x]
		if m == 0 {
			continue
		}
		if owner < 0 {
			owner = i
		}
		mask |= m
	}
	return mask, owner
}

func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// dotMask maps a dot inside a cell to its braille bit.
func dotMask(x, y int) uint8 {
	left := [4]uint8{0x01, 0x02, 0x04, 0x40}
	right := [4]uint8{0x08, 0x10, 0x20, 0x80}
	if x == 0 {
		return left[y]
	}
	return right[y]
}

func brailleRune(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
