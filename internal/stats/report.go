package stats

import (
	"github.com/verte-zerg/runboard/internal/model"
)

// Report contains precomputed data for dashboard and export rendering.
type Report struct {
	Rows    int
	Skipped int
	Overall model.OverallStats
	People  []model.PersonStats
	Daily   []model.DailyPoint
}

// BuildReport derives every view from the validated rows of a session.
// rawCount is the number of decoded records, including skipped ones.
func BuildReport(rawCount int, rows []model.ValidatedRow) Report {
	skipped := rawCount - len(rows)
	if skipped < 0 {
		skipped = 0
	}
	return Report{
		Rows:    rawCount,
		Skipped: skipped,
		Overall: Overall(rows),
		People:  PerPerson(rows),
		Daily:   DailyTrend(rows),
	}
}

// Empty reports whether the report has no validated rows.
func (r Report) Empty() bool {
	return r.Overall.Count == 0
}

// DailySeries returns the daily totals as a plot series.
func (r Report) DailySeries() Series {
	values := make([]float64, len(r.Daily))
	for i, p := range r.Daily {
		values[i] = p.TotalMiles
	}
	return Series{Name: "Miles", Values: values}
}
