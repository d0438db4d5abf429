package stats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/runboard/internal/model"
)

// Overall computes total, average, min and max distance over all rows.
// An empty input yields the zero value (Count == 0).
func Overall(rows []model.ValidatedRow) model.OverallStats {
	if len(rows) == 0 {
		return model.OverallStats{}
	}
	miles := make([]float64, len(rows))
	for i, r := range rows {
		miles[i] = r.Miles
	}
	minVal, maxVal := floats.Min(miles), floats.Max(miles)
	return model.OverallStats{
		Count: len(miles),
		Total: floats.Sum(miles),
		Avg:   clampedMean(miles, minVal, maxVal),
		Min:   minVal,
		Max:   maxVal,
	}
}

// PerPerson groups rows by exact person name and orders the groups by
// descending average. Ties keep first-seen order.
func PerPerson(rows []model.ValidatedRow) []model.PersonStats {
	order := make([]string, 0)
	grouped := map[string][]float64{}
	for _, r := range rows {
		if _, ok := grouped[r.Person]; !ok {
			order = append(order, r.Person)
		}
		grouped[r.Person] = append(grouped[r.Person], r.Miles)
	}
	out := make([]model.PersonStats, 0, len(order))
	for _, name := range order {
		miles := grouped[name]
		minVal, maxVal := floats.Min(miles), floats.Max(miles)
		out = append(out, model.PersonStats{
			Name: name,
			Runs: len(miles),
			Avg:  clampedMean(miles, minVal, maxVal),
			Min:  minVal,
			Max:  maxVal,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Avg > out[j].Avg
	})
	return out
}

// DailyTrend sums distance per exact date string, ordered by byte-wise
// string comparison. That is chronological only for YYYY-MM-DD dates.
func DailyTrend(rows []model.ValidatedRow) []model.DailyPoint {
	totals := map[string]float64{}
	for _, r := range rows {
		totals[r.Date] += r.Miles
	}
	out := make([]model.DailyPoint, 0, len(totals))
	for date, total := range totals {
		out = append(out, model.DailyPoint{Date: date, TotalMiles: total})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

// clampedMean keeps the mean inside [minVal, maxVal]; summation rounding
// can otherwise push it a few ulps past the bounds.
func clampedMean(values []float64, minVal, maxVal float64) float64 {
	mean := stat.Mean(values, nil)
	if mean < minVal {
		return minVal
	}
	if mean > maxVal {
		return maxVal
	}
	return mean
}
