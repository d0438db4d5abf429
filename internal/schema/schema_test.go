package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/runboard/internal/model"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Miles_Run":      "miles run",
		"miles run":      "miles run",
		"  MILES   RUN ": "miles run",
		"miles__ _\tRUN": "miles run",
		"_date_":         "date",
		"_date":          "date",
		"miles_run_":     "miles run",
		"__ person":      "person",
		"":               "",
		"Person":         "person",
		"\ufeffdate":     "date",
		"Straße":         "straße",
		"distance (km)":  "distance (km)",
	}
	for in, want := range cases {
		got := Normalize(in)
		if got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
		if again := Normalize(got); again != got {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, got, again)
		}
	}
}

func TestCheckSchema(t *testing.T) {
	cases := []struct {
		name    string
		headers []string
		missing []string
	}{
		{name: "all present", headers: []string{"Date", "Person", "Miles Run"}},
		{name: "any order with extras", headers: []string{"notes", "miles_run", " PERSON ", "date"}},
		{name: "missing person", headers: []string{"Date", "Miles Run"}, missing: []string{"person"}},
		{name: "empty", headers: nil, missing: []string{"date", "person", "miles run"}},
		{name: "aliases", headers: []string{"date", "name", "distance"}},
		{name: "miles alias", headers: []string{"date", "person", "Miles"}},
		{name: "canonical order", headers: []string{"person"}, missing: []string{"date", "miles run"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckSchema(tc.headers)
			if diff := cmp.Diff(tc.missing, got); diff != "" {
				t.Fatalf("missing mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractRow(t *testing.T) {
	headers := []string{"date", "person", "miles run"}
	cases := []struct {
		name   string
		row    model.RawRow
		want   model.ValidatedRow
		wantOK bool
	}{
		{
			name:   "valid",
			row:    model.NewRawRow(headers, []string{"2024-01-01", " Ann ", "5.5"}),
			want:   model.ValidatedRow{Date: "2024-01-01", Person: "Ann", Miles: 5.5},
			wantOK: true,
		},
		{name: "empty person", row: model.NewRawRow(headers, []string{"2024-01-01", "", "5"})},
		{name: "blank date", row: model.NewRawRow(headers, []string{"   ", "Ann", "5"})},
		{name: "non-numeric miles", row: model.NewRawRow(headers, []string{"2024-01-01", "Ann", "abc"})},
		{name: "empty miles", row: model.NewRawRow(headers, []string{"2024-01-01", "Ann", ""})},
		{name: "infinite miles", row: model.NewRawRow(headers, []string{"2024-01-01", "Ann", "Inf"})},
		{name: "nan miles", row: model.NewRawRow(headers, []string{"2024-01-01", "Ann", "NaN"})},
		{name: "short record", row: model.NewRawRow(headers, []string{"2024-01-01"})},
		{
			name:   "raw keys normalized at lookup",
			row:    model.NewRawRow([]string{" DATE", "Person", "Miles_Run", "notes"}, []string{"2024-02-01", "Bo", "1e1", "x"}),
			want:   model.ValidatedRow{Date: "2024-02-01", Person: "Bo", Miles: 10},
			wantOK: true,
		},
		{
			name:   "aliases",
			row:    model.NewRawRow([]string{"date", "name", "distance"}, []string{"2024-02-01", "Cy", "-2.25"}),
			want:   model.ValidatedRow{Date: "2024-02-01", Person: "Cy", Miles: -2.25},
			wantOK: true,
		},
		{
			name:   "canonical field wins over alias",
			row:    model.NewRawRow([]string{"date", "person", "name", "miles run", "miles"}, []string{"d", "P", "N", "3", "4"}),
			want:   model.ValidatedRow{Date: "d", Person: "P", Miles: 3},
			wantOK: true,
		},
		{name: "no headers", row: model.RawRow{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractRow(tc.row)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v (%+v)", tc.wantOK, ok, got)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("row mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractRowsKeepsOrder(t *testing.T) {
	headers := []string{"date", "person", "miles run"}
	rows := []model.RawRow{
		model.NewRawRow(headers, []string{"2024-01-02", "Ann", "2"}),
		model.NewRawRow(headers, []string{"2024-01-01", "", "1"}),
		model.NewRawRow(headers, []string{"2024-01-01", "Bo", "3"}),
	}
	got := ExtractRows(rows)
	want := []model.ValidatedRow{
		{Date: "2024-01-02", Person: "Ann", Miles: 2},
		{Date: "2024-01-01", Person: "Bo", Miles: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorsFormat(t *testing.T) {
	err := &SchemaError{Missing: []string{"date", "person"}}
	if err.Error() != "missing headers: date, person" {
		t.Fatalf("unexpected schema error: %q", err.Error())
	}
}
