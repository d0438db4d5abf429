// Package model defines shared data structures.
package model

import "time"

// RawRow is one decoded CSV record keyed by the source's original headers.
// Headers is shared by every row of a file; Values is aligned with it.
type RawRow struct {
	Headers []string
	Values  []string
}

// NewRawRow aligns a record with its header row. Short records are padded
// with empty strings and fields beyond the header width are dropped.
func NewRawRow(headers, record []string) RawRow {
	values := make([]string, len(headers))
	copy(values, record)
	return RawRow{Headers: headers, Values: values}
}

// ValidatedRow is a row that yielded a usable date, person and distance.
type ValidatedRow struct {
	Date   string
	Person string
	Miles  float64
}

// OverallStats summarizes every validated row. Count is zero when there is
// no data, in which case every other field is zero as well.
type OverallStats struct {
	Count int
	Total float64
	Avg   float64
	Min   float64
	Max   float64
}

// PersonStats summarizes the runs of a single person.
type PersonStats struct {
	Name string
	Runs int
	Avg  float64
	Min  float64
	Max  float64
}

// DailyPoint is the total distance logged on one date.
type DailyPoint struct {
	Date       string
	TotalMiles float64
}

// Settings defines resolved runtime options.
type Settings struct {
	BatchSize  int           `validate:"gte=1,lte=1000000"`
	ClearDelay time.Duration `validate:"gte=0,lte=1m"`
	ExportDir  string        `validate:"required"`
	LogLevel   string        `validate:"oneof=debug info warn error"`
	LogFile    string
}
