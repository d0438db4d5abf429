package export

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg"

	"github.com/verte-zerg/runboard/internal/model"
	"github.com/verte-zerg/runboard/internal/stats"
)

const (
	reportTitle    = "CSV Runner Dashboard Report"
	pageMargin     = 14.0
	rowHeight      = 7.0
	wrapLineHeight = 4.5
	chartImageKey  = "daily-trend"
	maxTickLabels  = 8
)

// WritePDF renders a report with the overall figures, a per-person summary,
// the daily trend chart and every raw row. The row table repeats its header
// on each page.
func WritePDF(w io.Writer, report stats.Report, rows []model.RawRow) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	doc := newPDFDoc(pdf)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	doc.line(reportTitle, 10)
	pdf.SetFont("Helvetica", "", 12)
	o := report.Overall
	doc.line(fmt.Sprintf("Total Miles: %.2f", o.Total), rowHeight)
	doc.line(fmt.Sprintf("Average Miles: %.2f", o.Avg), rowHeight)
	doc.line(fmt.Sprintf("Max Miles: %.2f", o.Max), rowHeight)
	doc.line(fmt.Sprintf("Min Miles: %.2f", o.Min), rowHeight)
	pdf.SetFont("Helvetica", "", 9)
	doc.line(fmt.Sprintf("%d rows, %d skipped from statistics", report.Rows, report.Skipped), rowHeight)
	pdf.Ln(4)

	if len(report.People) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		doc.line("Per Person", rowHeight)
		headers, cells := stats.PeopleTableData(report.People)
		doc.table(headers, cells)
		pdf.Ln(4)
	}

	if len(report.Daily) > 0 {
		png, err := renderTrendPNG(report.Daily)
		if err != nil {
			return err
		}
		doc.image(png)
	}

	if pdf.GetY() > pageMargin+1 {
		pdf.AddPage()
	}
	pdf.SetFont("Helvetica", "B", 12)
	doc.line("Data", rowHeight)
	values := make([][]string, len(rows))
	for i, row := range rows {
		values[i] = row.Values
	}
	doc.table(rows[0].Headers, values)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

type pdfDoc struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newPDFDoc(pdf *fpdf.Fpdf) *pdfDoc {
	return &pdfDoc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d *pdfDoc) contentWidth() float64 {
	width, _ := d.pdf.GetPageSize()
	return width - 2*pageMargin
}

func (d *pdfDoc) bottom() float64 {
	_, height := d.pdf.GetPageSize()
	return height - pageMargin
}

func (d *pdfDoc) line(text string, height float64) {
	d.pdf.CellFormat(0, height, d.tr(text), "", 1, "L", false, 0, "")
}

// table draws equal-width columns, starting a new page with a repeated
// header whenever the next row would cross the bottom margin. Long cells
// wrap onto extra lines inside their row.
func (d *pdfDoc) table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}
	colWidth := d.contentWidth() / float64(len(headers))
	drawHeader := func() {
		d.pdf.SetFont("Helvetica", "B", 9)
		d.pdf.SetFillColor(41, 128, 185)
		d.pdf.SetTextColor(255, 255, 255)
		d.row(d.wrapRow(headers, len(headers), colWidth), colWidth, true)
		d.pdf.SetFont("Helvetica", "", 9)
		d.pdf.SetTextColor(0, 0, 0)
	}

	if d.pdf.GetY()+2*rowHeight > d.bottom() {
		d.pdf.AddPage()
	}
	drawHeader()
	for i, row := range rows {
		cells := d.wrapRow(row, len(headers), colWidth)
		if d.pdf.GetY()+rowHeightFor(cells) > d.bottom() {
			d.pdf.AddPage()
			drawHeader()
		}
		d.pdf.SetFillColor(245, 245, 245)
		d.row(cells, colWidth, i%2 == 1)
	}
}

// wrapRow splits every cell of row into lines that fit colWidth. Missing
// cells are blank.
func (d *pdfDoc) wrapRow(row []string, columns int, colWidth float64) [][]string {
	cells := make([][]string, columns)
	for c := range cells {
		text := ""
		if c < len(row) {
			text = row[c]
		}
		cells[c] = d.wrap(text, colWidth)
	}
	return cells
}

// wrap splits UTF-8 text at word boundaries and translates each line to the
// font encoding. It always returns at least one line.
func (d *pdfDoc) wrap(text string, width float64) []string {
	lines := d.pdf.SplitText(text, width)
	if len(lines) == 0 {
		return []string{""}
	}
	for i, line := range lines {
		lines[i] = d.tr(line)
	}
	return lines
}

func rowHeightFor(cells [][]string) float64 {
	lines := 1
	for _, cell := range cells {
		lines = max(lines, len(cell))
	}
	return rowHeight + float64(lines-1)*wrapLineHeight
}

// row draws one table row at the cursor and moves below it.
func (d *pdfDoc) row(cells [][]string, colWidth float64, fill bool) {
	height := rowHeightFor(cells)
	style := "D"
	if fill {
		style = "FD"
	}
	x, y := d.pdf.GetXY()
	for c, lines := range cells {
		left := x + float64(c)*colWidth
		d.pdf.Rect(left, y, colWidth, height, style)
		top := y + (height-float64(len(lines))*wrapLineHeight)/2
		for i, line := range lines {
			d.pdf.SetXY(left, top+float64(i)*wrapLineHeight)
			d.pdf.CellFormat(colWidth, wrapLineHeight, line, "", 0, "L", false, 0, "")
		}
	}
	d.pdf.SetXY(x, y+height)
}

func (d *pdfDoc) image(png []byte) {
	width := d.contentWidth()
	height := width * 3 / 6.5
	if d.pdf.GetY()+height > d.bottom() {
		d.pdf.AddPage()
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader(chartImageKey, opts, bytes.NewReader(png))
	d.pdf.ImageOptions(chartImageKey, pageMargin, d.pdf.GetY(), width, height, true, opts, 0, "")
}

// renderTrendPNG draws the daily totals as a line chart.
func renderTrendPNG(daily []model.DailyPoint) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Daily Miles"
	p.Y.Label.Text = "Miles"
	p.Y.Min = 0

	pts := make(plotter.XYs, len(daily))
	labels := make([]string, len(daily))
	step := (len(daily) + maxTickLabels - 1) / maxTickLabels
	for i, point := range daily {
		pts[i].X = float64(i)
		pts[i].Y = point.TotalMiles
		if i%step == 0 {
			labels[i] = point.Date
		}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build trend line: %w", err)
	}
	line.Width = vg.Points(1.5)
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build trend points: %w", err)
	}
	scatter.Radius = vg.Points(2)
	p.Add(plotter.NewGrid(), line, scatter)
	p.NominalX(labels...)

	writer, err := p.WriterTo(6.5*vg.Inch, 3*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render trend chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode trend chart: %w", err)
	}
	return buf.Bytes(), nil
}
