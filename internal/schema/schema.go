// Package schema normalizes CSV headers and extracts typed running-log rows.
package schema

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/verte-zerg/runboard/internal/model"
)

// Canonical field names, in the order missing fields are reported.
const (
	FieldDate   = "date"
	FieldPerson = "person"
	FieldMiles  = "miles run"
)

// RequiredFields lists the normalized headers a source must provide.
var RequiredFields = []string{FieldDate, FieldPerson, FieldMiles}

// aliases maps a canonical field to every normalized header accepted for it,
// canonical name first.
var aliases = map[string][]string{
	FieldDate:   {FieldDate},
	FieldPerson: {FieldPerson, "name"},
	FieldMiles:  {FieldMiles, "miles", "distance"},
}

// Normalize trims a header, lower-cases ASCII letters and collapses every
// run of underscores and whitespace into a single space. Runs at either end
// are dropped, so "_date" and "date" compare equal.
func Normalize(header string) string {
	header = strings.TrimSpace(header)
	var b strings.Builder
	b.Grow(len(header))
	pendingSpace := false
	for _, r := range header {
		if r == '_' || isSpace(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CheckSchema returns the canonical names of required fields that none of
// the headers (or their aliases) provide. A nil result means the schema is
// valid.
func CheckSchema(headers []string) []string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[Normalize(h)] = struct{}{}
	}
	var missing []string
	for _, field := range RequiredFields {
		found := false
		for _, name := range aliases[field] {
			if _, ok := present[name]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, field)
		}
	}
	return missing
}

// ExtractRow pulls a validated row out of a raw record. It reports false
// when the date or person is blank or the distance is not a finite number.
func ExtractRow(raw model.RawRow) (model.ValidatedRow, bool) {
	index := make(map[string]string, len(raw.Headers))
	for i, h := range raw.Headers {
		key := Normalize(h)
		if _, ok := index[key]; ok {
			continue
		}
		if i < len(raw.Values) {
			index[key] = raw.Values[i]
		} else {
			index[key] = ""
		}
	}

	date := strings.TrimSpace(lookup(index, FieldDate))
	person := strings.TrimSpace(lookup(index, FieldPerson))
	if date == "" || person == "" {
		return model.ValidatedRow{}, false
	}
	miles, ok := parseMiles(lookup(index, FieldMiles))
	if !ok {
		return model.ValidatedRow{}, false
	}
	return model.ValidatedRow{Date: date, Person: person, Miles: miles}, true
}

// ExtractRows keeps the rows that pass ExtractRow, in order.
func ExtractRows(rows []model.RawRow) []model.ValidatedRow {
	out := make([]model.ValidatedRow, 0, len(rows))
	for _, raw := range rows {
		if row, ok := ExtractRow(raw); ok {
			out = append(out, row)
		}
	}
	return out
}

func lookup(index map[string]string, field string) string {
	for _, name := range aliases[field] {
		if v, ok := index[name]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseMiles(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
