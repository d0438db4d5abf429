package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/runboard/internal/model"
	"github.com/verte-zerg/runboard/internal/schema"
	"github.com/verte-zerg/runboard/internal/stats"
)

var headers = []string{"date", "person", "miles run", "notes"}

func sampleRows() []model.RawRow {
	return []model.RawRow{
		model.NewRawRow(headers, []string{"2024-01-01", "Ann", "3", "easy, flat"}),
		model.NewRawRow(headers, []string{"2024-01-01", "Bo", "1", `said "hi"`}),
		model.NewRawRow(headers, []string{"2024-01-02", "Ann", "5", "line\nbreak"}),
		model.NewRawRow(headers, []string{"2024-01-03", "", "2", "skipped"}),
	}
}

func sampleReport(rows []model.RawRow) stats.Report {
	return stats.BuildReport(len(rows), schema.ExtractRows(rows))
}

func TestWriteCSVRoundTrip(t *testing.T) {
	rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	out := buf.String()
	assert.Contains(t, out, `"easy, flat"`)
	assert.Contains(t, out, `"said ""hi"""`)
	assert.True(t, strings.HasPrefix(out, "date,person,miles run,notes\r\n"))

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(rows)+1)
	assert.Equal(t, headers, records[0])
	for i, row := range rows {
		assert.Equal(t, row.Values, records[i+1])
	}
}

func TestWriteCSVQuotesLeadingSpace(t *testing.T) {
	rows := []model.RawRow{model.NewRawRow(headers, []string{"2024-01-01", " Ann", "3", "\tstretch"})}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	assert.Equal(t, "date,person,miles run,notes\r\n2024-01-01,\" Ann\",3,\"\tstretch\"\r\n", buf.String())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, rows[0].Values, records[1])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteCSV(&buf, nil), ErrNoRows)
	assert.Zero(t, buf.Len())
}

func TestWritePDF(t *testing.T) {
	rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleReport(rows), rows))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestWritePDFPaginatesLargeTables(t *testing.T) {
	small := sampleRows()
	var large []model.RawRow
	for i := 0; i < 300; i++ {
		large = append(large, small[i%len(small)])
	}
	var one, many bytes.Buffer
	require.NoError(t, WritePDF(&one, sampleReport(small), small))
	require.NoError(t, WritePDF(&many, sampleReport(large), large))
	assert.Greater(t, many.Len(), one.Len())
}

func TestWritePDFWithoutValidRows(t *testing.T) {
	rows := []model.RawRow{model.NewRawRow(headers, []string{"", "", "x", ""})}
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleReport(rows), rows))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	assert.ErrorIs(t, WritePDF(&buf, stats.Report{}, nil), ErrNoRows)
}

func TestPDFTableWrapsLongCells(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 9)
	doc := newPDFDoc(pdf)

	long := strings.Repeat("Zoë ", 40) + "finish"
	lines := doc.wrap(long, 20)
	require.Greater(t, len(lines), 1)
	joined := strings.Join(lines, " ")
	assert.NotContains(t, joined, "\uFFFD")
	assert.Equal(t, 40, strings.Count(joined, doc.tr("Zoë")))
	assert.True(t, strings.HasSuffix(joined, "finish"))
	for _, line := range lines {
		assert.LessOrEqual(t, pdf.GetStringWidth(line), 20.0)
	}
	assert.Equal(t, []string{""}, doc.wrap("", 20))

	doc.table([]string{"person", "notes"}, [][]string{{"Zoë", long}})
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	out := buf.String()
	assert.Contains(t, out, "finish")
	assert.NotContains(t, out, "...")
	assert.NotContains(t, out, "\uFFFD")
}

func TestWriteHTML(t *testing.T) {
	rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleReport(rows)))
	out := buf.String()
	assert.Contains(t, out, PeopleChartTitle)
	assert.Contains(t, out, TrendChartTitle)
	assert.Contains(t, out, "2024-01-02")
	assert.Contains(t, out, "Ann")

	assert.ErrorIs(t, WriteHTML(io.Discard, stats.Report{}), ErrNoRows)
}

func TestToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	path, err := ToFile(dir, CSVFileName, func(w io.Writer) error {
		return WriteCSV(w, sampleRows())
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, CSVFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("date,person")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestToFileFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")
	_, err := ToFile(dir, PDFFileName, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteByName(t *testing.T) {
	rows := sampleRows()
	report := sampleReport(rows)
	for _, name := range []string{CSVFileName, PDFFileName, HTMLFileName} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, name, report, rows), name)
		assert.NotZero(t, buf.Len(), name)
	}
	assert.Error(t, Write(io.Discard, "report.xlsx", report, rows))
}
