package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestPlotLine(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	var buf bytes.Buffer
	err := PlotLine(&buf, "Test Plot", Series{Name: "A", Values: []float64{1, 2, 3, 2, 1}}, 10, 4, false)
	if err != nil {
		t.Fatalf("PlotLine failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("did not expect color codes for a buffer")
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1+4 {
		t.Fatalf("expected 5 lines of output, got %d:\n%s", len(lines), out)
	}
	if lines[0] != "Test Plot" {
		t.Fatalf("expected title first, got %q", lines[0])
	}
	wantLabels := map[int]string{1: "3.0", 3: "2.0", 4: "1.0"}
	for i, label := range wantLabels {
		if !strings.HasPrefix(lines[i], runewidth.FillLeft(label, axisLabelWidth)+axisSeparator) {
			t.Fatalf("expected label %s on line %d, got %q", label, i, lines[i])
		}
	}
	for _, line := range lines[1:] {
		plot := strings.SplitN(line, axisSeparator, 2)[1]
		if runewidth.StringWidth(plot) != 10 {
			t.Fatalf("expected 10 plot cells, got %q", plot)
		}
	}
}

func TestPlotLineForcedColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	var buf bytes.Buffer
	if err := PlotLine(&buf, "", Series{Values: []float64{1, 2}}, 10, 2, true); err != nil {
		t.Fatalf("PlotLine failed: %v", err)
	}
	if !strings.Contains(buf.String(), lineColor) {
		t.Fatalf("expected colored rows, got %q", buf.String())
	}

	t.Setenv("NO_COLOR", "1")
	buf.Reset()
	if err := PlotLine(&buf, "", Series{Values: []float64{1, 2}}, 10, 2, true); err != nil {
		t.Fatalf("PlotLine failed: %v", err)
	}
	if strings.Contains(buf.String(), lineColor) {
		t.Fatalf("NO_COLOR should disable color")
	}
}

func TestPlotLineFlatSeries(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotLine(&buf, "", Series{Name: "Miles", Values: []float64{3, 3}}, 10, 3, false); err != nil {
		t.Fatalf("PlotLine failed: %v", err)
	}
	out := buf.String()
	// A flat series is padded by one unit on each side.
	if !strings.Contains(out, "4.0") || !strings.Contains(out, "2.0") {
		t.Fatalf("expected padded range labels, got:\n%s", out)
	}
}

func TestPlotLineSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotLine(&buf, "Nothing", Series{Name: "A"}, 10, 4, false); err != nil {
		t.Fatalf("PlotLine failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestBrailleCanvas(t *testing.T) {
	c := newBrailleCanvas(2, 1)
	c.set(0, 0)
	c.set(1, 3)
	c.set(9, 9)
	if got := c.row(0); got != "⢁⠀" {
		t.Fatalf("unexpected cells %q", got)
	}

	c = newBrailleCanvas(2, 1)
	c.line(0, 0, 3, 3)
	if got := c.row(0); got != "⠑⢄" {
		t.Fatalf("unexpected diagonal %q", got)
	}
	if got := c.rowFor(10, 0, 10); got != 0 {
		t.Fatalf("expected max on top row, got %d", got)
	}
	if got := c.rowFor(0, 0, 10); got != 3 {
		t.Fatalf("expected min on bottom row, got %d", got)
	}
}

func TestPlotWidthFor(t *testing.T) {
	axisWidth := axisLabelWidth + runewidth.StringWidth(axisSeparator)
	total := 80
	expected := total - axisWidth
	if got := PlotWidthFor(total); got != expected {
		t.Fatalf("expected width %d, got %d", expected, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
	if got := PlotWidthFor(12); got != minPlotWidth {
		t.Fatalf("expected min width %d for narrow terminals, got %d", minPlotWidth, got)
	}
}

func TestResampleSeries(t *testing.T) {
	got := resampleSeries([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected downsample: %v", got)
	}
	got = resampleSeries([]float64{0, 10}, 3)
	if len(got) != 3 || got[0] != 0 || got[1] != 5 || got[2] != 10 {
		t.Fatalf("unexpected upsample: %v", got)
	}
	got = resampleSeries([]float64{4}, 3)
	for _, v := range got {
		if v != 4 {
			t.Fatalf("expected constant stretch, got %v", got)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
	got := Sparkline([]float64{0, 5, 10})
	if len(got) != 3 || got[0] != ' ' || got[2] != '@' {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{2, 2}); got != "++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}
