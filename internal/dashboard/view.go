package dashboard

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/runboard/internal/session"
	"github.com/verte-zerg/runboard/internal/stats"
)

const (
	plotHeight     = 10
	maxColumnWidth = 24
	minColumnWidth = 6
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#2D9CDB"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB77E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#2D9CDB")).
			Padding(0, 1)
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.picking {
		return fitLines(m.renderPicker(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// refresh re-reads the controller and rebuilds every tab.
func (m *Model) refresh() {
	m.snap = m.ctrl.Snapshot()
	m.report = m.ctrl.Report()
	headers, rows := stats.PeopleTableData(m.report.People)
	setTableData(&m.peopleTable, headers, rows)
	values := make([][]string, len(m.snap.Rows))
	for i, row := range m.snap.Rows {
		values[i] = row.Values
	}
	setTableData(&m.dataTable, m.snap.Headers, values)
	m.updateLayout()
	m.renderTabContents()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := maxInt(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	if m.snap.ShowProgress {
		headerHeight++
	}
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = maxInt(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	for _, t := range []*table.Model{&m.peopleTable, &m.dataTable} {
		t.SetWidth(m.width)
		t.SetHeight(maxInt(1, bodyHeight-1))
	}
	m.progress.Width = maxInt(10, m.width-2)
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.snap, m.report, width))
	m.viewports[tabTrend].SetContent(renderTrend(m.report, width))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	lines := []string{padLines(m.renderTabs(), m.width), m.renderSessionSummary()}
	if m.snap.ShowProgress {
		lines = append(lines, m.progress.ViewAs(float64(m.snap.Progress)/100))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSessionSummary() string {
	source := m.snap.Source
	if source == "" {
		source = "none"
	}
	summary := fmt.Sprintf("File: %s  Rows: %d (%d skipped)  Status: %s",
		source, m.report.Rows, m.report.Skipped, m.snap.Phase)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down  Open: o  Clear: c  Export: s=csv p=pdf w=html  Quit: q"
	line := headerStyle.Render(truncateLine(help, m.width))
	if m.status != "" {
		line += "  " + statusStyle.Render(m.status)
	}
	return line
}

func (m *Model) renderFooter() string {
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render("Error: "+m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	if t := m.activeTable(); t != nil {
		if len(t.Rows()) == 0 {
			return fitLines(emptyMessage(m.snap), m.width, height)
		}
		return fitLines(tableMutedStyle.Render(t.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderPicker() string {
	body := []string{
		cardValueStyle.Render("Open CSV"),
		headerStyle.Render(m.picker.CurrentDirectory),
		m.picker.View(),
		headerStyle.Render("enter: open  esc: cancel"),
	}
	return modalStyle.Width(maxInt(20, m.width-2)).Render(strings.Join(body, "\n"))
}

func emptyMessage(snap session.Snapshot) string {
	switch snap.Phase {
	case session.Loading:
		return "Loading..."
	case session.Failed:
		return "No data. Fix the file and open it again."
	case session.Loaded:
		return "No valid rows found."
	default:
		return "No data loaded. Press o to open a CSV file."
	}
}

func renderOverview(snap session.Snapshot, report stats.Report, width int) string {
	if report.Empty() {
		if len(snap.Rows) > 0 {
			return "No valid rows found."
		}
		return emptyMessage(snap)
	}
	o := report.Overall
	cards := []string{
		metricCard("Total Miles", fmt.Sprintf("%.2f", o.Total)),
		metricCard("Average Miles", fmt.Sprintf("%.2f", o.Avg)),
		metricCard("Max Miles", fmt.Sprintf("%.2f", o.Max)),
		metricCard("Min Miles", fmt.Sprintf("%.2f", o.Min)),
	}
	var grid string
	if width < 80 {
		grid = strings.Join(cards, "\n")
	} else {
		grid = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	lines := []string{
		grid,
		"",
		fmt.Sprintf("Runners: %d  Days: %d", len(report.People), len(report.Daily)),
	}
	if len(report.People) > 0 {
		top := report.People[0]
		lines = append(lines, fmt.Sprintf("Top average: %s (%.2f over %d runs)", top.Name, top.Avg, top.Runs))
	}
	series := report.DailySeries()
	if len(series.Values) > 1 {
		spark := stats.Sparkline(series.Values)
		lines = append(lines, "Daily: "+truncateLine(spark, maxInt(10, width-7)))
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderTrend(report stats.Report, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderTrendWithSize(&buf, report, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render trend: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func newTable() table.Model {
	t := table.New(table.WithHeight(1))
	t.SetStyles(tableStyles())
	return t
}

// setTableData replaces columns and rows, sizing each column to its widest
// cell within bounds. Rows are padded or cut to the column count.
func setTableData(t *table.Model, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	tableRows := make([]table.Row, len(rows))
	for r, row := range rows {
		cells := make(table.Row, len(headers))
		copy(cells, row)
		for i, cell := range cells {
			widths[i] = maxInt(widths[i], lipgloss.Width(cell))
		}
		tableRows[r] = cells
	}
	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		columns[i] = table.Column{Title: h, Width: minInt(maxColumnWidth, maxInt(minColumnWidth, widths[i]))}
	}
	// Rows must be cleared before shrinking the column set.
	t.SetRows(nil)
	t.SetColumns(columns)
	t.SetRows(tableRows)
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
