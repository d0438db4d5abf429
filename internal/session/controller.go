package session

import (
	"sync"

	"github.com/verte-zerg/runboard/internal/ingest"
	"github.com/verte-zerg/runboard/internal/model"
	"github.com/verte-zerg/runboard/internal/schema"
	"github.com/verte-zerg/runboard/internal/stats"
)

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	ID           string
	Source       string
	Phase        Phase
	Headers      []string
	Rows         []model.RawRow
	Progress     int
	ShowProgress bool
	Err          error
}

// Controller serializes state transitions so the ingest pump and readers
// may run on different goroutines. It caches the aggregate report until
// the rows change.
type Controller struct {
	mu    sync.RWMutex
	state State

	reportMu  sync.Mutex
	report    stats.Report
	reportRev uint64
	hasReport bool
}

// NewController returns an idle controller.
func NewController() *Controller {
	return &Controller{}
}

// Begin makes id the active session, discarding the previous one.
func (c *Controller) Begin(id, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Reset(id, source)
}

// Clear drops the active session and its rows.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Clear()
}

// Apply feeds an ingestion event through the state reducer.
func (c *Controller) Apply(ev ingest.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Apply(ev)
}

// Current reports whether id is the active session.
func (c *Controller) Current(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.current(id)
}

// Snapshot returns the current state. Rows is capped so appends by the
// caller never touch controller memory.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	return Snapshot{
		ID:           s.ID,
		Source:       s.Source,
		Phase:        s.Phase,
		Headers:      append([]string(nil), s.Headers...),
		Rows:         s.Rows[:len(s.Rows):len(s.Rows)],
		Progress:     s.Progress,
		ShowProgress: s.ShowProgress,
		Err:          s.Err,
	}
}

// Report returns the aggregates of the accumulated rows, recomputing them
// only when the rows changed since the last call.
func (c *Controller) Report() stats.Report {
	c.mu.RLock()
	rows := c.state.Rows[:len(c.state.Rows):len(c.state.Rows)]
	rev := c.state.Revision
	c.mu.RUnlock()

	c.reportMu.Lock()
	defer c.reportMu.Unlock()
	if c.hasReport && c.reportRev == rev {
		return c.report
	}
	c.report = stats.BuildReport(len(rows), schema.ExtractRows(rows))
	c.reportRev = rev
	c.hasReport = true
	return c.report
}
