package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
	"gonum.org/v1/gonum/floats"
)

// Series is a named sequence of values for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 8
	axisSeparator       = " │ "
	lineColor           = "\x1b[36m"
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

// PlotLine renders s as a braille line chart with max, mid and min labels on
// the value axis. Nothing is written for an empty series.
func PlotLine(w io.Writer, title string, s Series, width, height int, forceColor bool) error {
	if len(s.Values) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	lo, hi := valueBounds(s.Values)
	canvas := newBrailleCanvas(width, height)
	prevX, prevY := -1, -1
	for i, v := range resampleSeries(s.Values, width) {
		x, y := i*2, canvas.rowFor(v, lo, hi)
		if prevX < 0 {
			canvas.set(x, y)
		} else {
			canvas.line(prevX, prevY, x, y)
		}
		prevX, prevY = x, y
	}

	color := shouldUseColor(w, forceColor)
	labels := axisLabels(height, lo, hi)
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	for y := 0; y < height; y++ {
		b.WriteString(runewidth.FillLeft(labels[y], axisLabelWidth))
		b.WriteString(axisSeparator)
		row := canvas.row(y)
		if color {
			row = lineColor + row + colorReset
		}
		b.WriteString(row)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// valueBounds pads a flat series by one unit on each side.
func valueBounds(values []float64) (float64, float64) {
	lo, hi := floats.Min(values), floats.Max(values)
	if math.Abs(hi-lo) < 1e-9 {
		return lo - 1, hi + 1
	}
	return lo, hi
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-axisLabelWidth-runewidth.StringWidth(axisSeparator), minPlotWidth)
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
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func axisLabels(height int, lo, hi float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = formatAxisValue(hi)
	if height > 2 {
		labels[height/2] = formatAxisValue((lo + hi) / 2)
	}
	if height > 1 {
		labels[height-1] = formatAxisValue(lo)
	}
	return labels
}

func formatAxisValue(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	if runewidth.StringWidth(s) > axisLabelWidth {
		s = fmt.Sprintf("%.2g", v)
	}
	return s
}

// resampleSeries stretches or averages values down to exactly width points.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) > width:
		for i := range out {
			start := i * len(values) / width
			end := max((i+1)*len(values)/width, start+1)
			out[i] = floats.Sum(values[start:end]) / float64(end-start)
		}
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		last := len(values) - 1
		for i := range out {
			pos := float64(i) * float64(last) / float64(width-1)
			idx := int(pos)
			if idx >= last {
				out[i] = values[last]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// brailleCanvas is a grid of braille cells addressed in dots. Each cell is
// two dots wide and four dots tall.
type brailleCanvas struct {
	cells [][]uint8
}

var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func newBrailleCanvas(width, height int) *brailleCanvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return &brailleCanvas{cells: cells}
}

// rowFor maps v onto a dot row, with hi on the top row.
func (c *brailleCanvas) rowFor(v, lo, hi float64) int {
	dots := len(c.cells) * 4
	if dots <= 1 || hi == lo {
		return 0
	}
	pos := (v - lo) / (hi - lo)
	row := int(math.Round((1 - pos) * float64(dots-1)))
	return min(max(row, 0), dots-1)
}

func (c *brailleCanvas) set(x, y int) {
	if x < 0 || y < 0 || y/4 >= len(c.cells) || x/2 >= len(c.cells[y/4]) {
		return
	}
	c.cells[y/4][x/2] |= brailleBits[x%2][y%4]
}

// line draws a Bresenham line between two dots.
func (c *brailleCanvas) line(x0, y0, x1, y1 int) {
	dx, dy := x1-x0, y1-y0
	sx, sy := 1, 1
	if dx < 0 {
		dx, sx = -dx, -1
	}
	if dy < 0 {
		sy = -1
	} else {
		dy = -dy
	}
	err := dx + dy
	for {
		c.set(x0, y0)
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

func (c *brailleCanvas) row(y int) string {
	var b strings.Builder
	for _, mask := range c.cells[y] {
		b.WriteRune(rune(0x2800 + int(mask)))
	}
	return b.String()
}
