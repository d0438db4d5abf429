// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/verte-zerg/runboard/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := floats.Min(values), floats.Max(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the overall figures of a report.
func RenderSummary(w io.Writer, report Report) error {
	if report.Empty() {
		_, err := fmt.Fprintln(w, "No valid rows found.")
		return err
	}
	o := report.Overall
	lines := []string{
		"Summary",
		fmt.Sprintf("Rows: %d (%d skipped)", report.Rows, report.Skipped),
		fmt.Sprintf("Runners: %d", len(report.People)),
		fmt.Sprintf("Days: %d", len(report.Daily)),
		fmt.Sprintf("Total Miles: %.2f", o.Total),
		fmt.Sprintf("Average Miles: %.2f", o.Avg),
		fmt.Sprintf("Max Miles: %.2f", o.Max),
		fmt.Sprintf("Min Miles: %.2f", o.Min),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderPeopleTable prints per-person stats in ranking order.
func RenderPeopleTable(w io.Writer, people []model.PersonStats) error {
	if len(people) == 0 {
		_, err := fmt.Fprintln(w, "No runners found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Per Person"); err != nil {
		return err
	}
	headers, rows := PeopleTableData(people)
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// PeopleTableData formats per-person stats as table cells.
func PeopleTableData(people []model.PersonStats) ([]string, [][]string) {
	headers := []string{"Name", "Runs", "Avg", "Min", "Max"}
	rows := make([][]string, 0, len(people))
	for _, p := range people {
		rows = append(rows, []string{
			p.Name,
			fmt.Sprintf("%d", p.Runs),
			fmt.Sprintf("%.2f", p.Avg),
			fmt.Sprintf("%.2f", p.Min),
			fmt.Sprintf("%.2f", p.Max),
		})
	}
	return headers, rows
}

// RenderTrend prints the daily trend chart.
func RenderTrend(w io.Writer, report Report) error {
	return RenderTrendWithSize(w, report, 0, defaultPlotHeight, false)
}

// RenderTrendWithSize prints the daily trend chart sized to a given total width.
func RenderTrendWithSize(w io.Writer, report Report, totalWidth, height int, useColor bool) error {
	if len(report.Daily) == 0 {
		_, err := fmt.Fprintln(w, "No daily data found.")
		return err
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	first := report.Daily[0].Date
	last := report.Daily[len(report.Daily)-1].Date
	title := fmt.Sprintf("Daily Miles (%s .. %s, %d days)", first, last, len(report.Daily))
	return PlotLine(w, title, report.DailySeries(), width, height, useColor)
}
