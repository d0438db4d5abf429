package stats

import (
	"testing"

	"github.com/verte-zerg/runboard/internal/model"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Name", "Runs", "Avg"}
	rows := [][]string{
		{"Ann", "2", "4.00"},
		{"Bartholomew", "12", "10.25"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Name        Runs   Avg" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Ann            2  4.00" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Bartholomew   12 10.25" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Name", "Runs"}, [][]string{{"山田", "1"}, {"Al", "3"}}, map[int]bool{1: true})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	// 山田 occupies four terminal columns, the same as "Name".
	if lines[1] != "山田    1" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "Al      3" {
		t.Fatalf("unexpected narrow row: %q", lines[2])
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := formatTable(nil, nil, nil); lines != nil {
		t.Fatalf("expected nil lines, got %v", lines)
	}
}

func TestPeopleTableData(t *testing.T) {
	headers, rows := PeopleTableData([]model.PersonStats{
		{Name: "Ann", Runs: 2, Avg: 4, Min: 3, Max: 5},
	})
	if len(headers) != 5 || headers[0] != "Name" || headers[4] != "Max" {
		t.Fatalf("unexpected headers: %v", headers)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	want := []string{"Ann", "2", "4.00", "3.00", "5.00"}
	for i, cell := range want {
		if rows[0][i] != cell {
			t.Fatalf("cell %d: expected %q, got %q", i, cell, rows[0][i])
		}
	}
}
