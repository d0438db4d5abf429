package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/verte-zerg/runboard/internal/stats"
)

// Chart titles used on the HTML page.
const (
	PeopleChartTitle = "Average Miles per Person"
	TrendChartTitle  = "Daily Miles Trend"
)

// WriteHTML renders a standalone page with a bar chart of average miles per
// person and a line chart of the daily totals.
func WriteHTML(w io.Writer, report stats.Report) error {
	if report.Empty() {
		return ErrNoRows
	}
	initOpts := opts.Initialization{PageTitle: reportTitle, Width: "100%", Height: "480px"}

	names := make([]string, len(report.People))
	averages := make([]opts.BarData, len(report.People))
	for i, p := range report.People {
		names[i] = p.Name
		averages[i] = opts.BarData{Value: round2(p.Avg)}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: PeopleChartTitle, Subtitle: fmt.Sprintf("%d runners", len(names))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Miles"}),
	)
	bar.SetXAxis(names).
		AddSeries("Avg miles", averages,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	dates := make([]string, len(report.Daily))
	totals := make([]opts.LineData, len(report.Daily))
	for i, d := range report.Daily {
		dates[i] = d.Date
		totals[i] = opts.LineData{Value: round2(d.TotalMiles)}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: TrendChartTitle, Subtitle: fmt.Sprintf("%d days", len(dates))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Miles"}),
	)
	line.SetXAxis(dates).AddSeries("Total miles", totals)

	page := components.NewPage()
	page.AddCharts(bar, line)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render charts: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
