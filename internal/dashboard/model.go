// Package dashboard provides the Bubble Tea running-log dashboard.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/runboard/internal/export"
	"github.com/verte-zerg/runboard/internal/ingest"
	"github.com/verte-zerg/runboard/internal/schema"
	"github.com/verte-zerg/runboard/internal/session"
	"github.com/verte-zerg/runboard/internal/stats"
)

const (
	tabOverview = iota
	tabPeople
	tabTrend
	tabData
)

// Options configures a dashboard Model.
type Options struct {
	Context   context.Context
	Ingestor  *ingest.Ingestor
	Logger    *slog.Logger
	ExportDir string
	// StartDir is where the file picker opens.
	StartDir string
	// File is loaded on start when set.
	File string
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	ctx       context.Context
	ingestor  *ingest.Ingestor
	logger    *slog.Logger
	exportDir string
	initial   string

	ctrl *session.Controller
	sess *ingest.Session

	snap   session.Snapshot
	report stats.Report

	tabs        []string
	activeTab   int
	viewports   []viewport.Model
	peopleTable table.Model
	dataTable   table.Model
	progress    progress.Model

	picker  filepicker.Model
	picking bool

	status string
	errMsg string

	width  int
	height int
}

// eventMsg carries one ingestion event into the update loop.
type eventMsg struct {
	sess  *ingest.Session
	event ingest.Event
}

// sessionClosedMsg reports that a session's event stream ended.
type sessionClosedMsg struct {
	id string
}

type exportedMsg struct {
	path string
	err  error
}

// NewModel constructs a dashboard model.
func NewModel(opts Options) *Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Ingestor == nil {
		opts.Ingestor = ingest.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.StartDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.StartDir = wd
		}
	}
	m := &Model{
		ctx:       opts.Context,
		ingestor:  opts.Ingestor,
		logger:    opts.Logger,
		exportDir: opts.ExportDir,
		initial:   opts.File,
		ctrl:      session.NewController(),
		tabs:      []string{"Overview", "Per Person", "Daily Trend", "Data"},
		progress:  progress.New(progress.WithDefaultGradient()),
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.peopleTable = newTable()
	m.dataTable = newTable()
	m.picker = filepicker.New()
	m.picker.AllowedTypes = []string{".csv"}
	m.picker.CurrentDirectory = opts.StartDir
	m.picker.AutoHeight = true
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.initial == "" {
		return nil
	}
	return m.open(m.initial)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	case eventMsg:
		return m, m.handleEvent(msg)
	case sessionClosedMsg:
		if m.sess != nil && m.sess.ID() == msg.id {
			m.sess = nil
		}
		return m, nil
	case exportedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.logger.Error("export failed", "error", msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Saved %s", msg.path)
		m.logger.Info("export written", "path", msg.path)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.stop()
			return m, tea.Quit
		}
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.updateKeys(msg)
	}
	if m.picking {
		return m.updatePicker(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.stop()
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "o":
		m.picking = true
		return m, m.picker.Init()
	case "c":
		m.stop()
		m.ctrl.Clear()
		m.errMsg = ""
		m.status = "Cleared"
		m.refresh()
		return m, nil
	case "s":
		return m, m.exportCmd(export.CSVFileName)
	case "p":
		return m, m.exportCmd(export.PDFFileName)
	case "w":
		return m, m.exportCmd(export.HTMLFileName)
	case "g", "home":
		if t := m.activeTable(); t != nil {
			t.GotoTop()
		} else {
			m.viewports[m.activeTab].GotoTop()
		}
		return m, nil
	case "G", "end":
		if t := m.activeTable(); t != nil {
			t.GotoBottom()
		} else {
			m.viewports[m.activeTab].GotoBottom()
		}
		return m, nil
	}
	var cmd tea.Cmd
	if t := m.activeTable(); t != nil {
		*t, cmd = t.Update(msg)
		return m, cmd
	}
	m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
	return m, cmd
}

func (m *Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && (key.Type == tea.KeyEsc || key.String() == "q") {
		m.picking = false
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		return m, m.open(path)
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.errMsg = fmt.Sprintf("%s is not a CSV file", filepath.Base(path))
	}
	return m, cmd
}

// open starts a new session for path, superseding any running one.
func (m *Model) open(path string) tea.Cmd {
	src, err := ingest.OpenFile(path)
	if err != nil {
		m.errMsg = err.Error()
		m.logger.Error("open failed", "path", path, "error", err)
		return nil
	}
	m.stop()
	sess := m.ingestor.Begin(m.ctx, src)
	m.sess = sess
	m.ctrl.Begin(sess.ID(), src.Name)
	m.errMsg = ""
	m.status = fmt.Sprintf("Loading %s", src.Name)
	m.refresh()
	return waitForEvent(sess)
}

func (m *Model) stop() {
	if m.sess != nil {
		m.sess.Cancel()
		m.sess = nil
	}
}

func waitForEvent(sess *ingest.Session) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sess.Events()
		if !ok {
			return sessionClosedMsg{id: sess.ID()}
		}
		return eventMsg{sess: sess, event: ev}
	}
}

// handleEvent applies an event from the active session and keeps pumping.
// Events from superseded sessions are dropped and their pump stops.
func (m *Model) handleEvent(msg eventMsg) tea.Cmd {
	if !m.ctrl.Current(msg.event.SessionID()) {
		return nil
	}
	if !m.ctrl.Apply(msg.event) {
		return waitForEvent(msg.sess)
	}
	switch ev := msg.event.(type) {
	case ingest.Chunk:
		m.refresh()
	case ingest.Failed:
		m.errMsg = describeFailure(ev.Err)
		m.status = ""
		m.refresh()
	case ingest.Succeeded:
		m.refresh()
		m.status = fmt.Sprintf("Loaded %d rows from %s", ev.Rows, m.snap.Source)
	default:
		m.snap = m.ctrl.Snapshot()
		m.updateLayout()
	}
	return waitForEvent(msg.sess)
}

func describeFailure(err error) string {
	var schemaErr *schema.SchemaError
	if errors.As(err, &schemaErr) {
		return "CSV is " + schemaErr.Error()
	}
	return err.Error()
}

func (m *Model) exportCmd(name string) tea.Cmd {
	rows := m.snap.Rows
	report := m.report
	if len(rows) == 0 {
		m.status = "Nothing to export"
		return nil
	}
	dir := m.exportDir
	return func() tea.Msg {
		path, err := export.ToFile(dir, name, func(w io.Writer) error {
			return export.Write(w, name, report, rows)
		})
		return exportedMsg{path: path, err: err}
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	m.activeTab = (m.activeTab + delta + count) % count
	m.peopleTable.Blur()
	m.dataTable.Blur()
	if t := m.activeTable(); t != nil {
		t.Focus()
	}
}

func (m *Model) activeTable() *table.Model {
	switch m.activeTab {
	case tabPeople:
		return &m.peopleTable
	case tabData:
		return &m.dataTable
	default:
		return nil
	}
}
