// Package session tracks the rows and status of the active ingestion run.
package session

import (
	"github.com/verte-zerg/runboard/internal/ingest"
	"github.com/verte-zerg/runboard/internal/model"
)

// Phase is where the current session stands.
type Phase int

const (
	Idle Phase = iota
	Loading
	Loaded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// State is the accumulated view of one session. Transitions tagged with an
// id other than ID are ignored so a superseded session can never write.
// Every transition reports whether it changed anything.
type State struct {
	ID           string
	Source       string
	Phase        Phase
	Headers      []string
	Rows         []model.RawRow
	Progress     int
	ShowProgress bool
	Err          error

	// Revision increases whenever Rows changes.
	Revision uint64
}

// Reset discards everything and makes id the current session.
func (s *State) Reset(id, source string) {
	*s = State{
		ID:           id,
		Source:       source,
		Phase:        Loading,
		ShowProgress: true,
		Revision:     s.Revision + 1,
	}
}

// Clear returns to the idle state with no session.
func (s *State) Clear() {
	*s = State{Revision: s.Revision + 1}
}

func (s *State) current(id string) bool {
	return id != "" && id == s.ID
}

// AppendChunk adds rows in order. Empty chunks and chunks arriving after a
// failure are no-ops.
func (s *State) AppendChunk(id string, rows []model.RawRow) bool {
	if !s.current(id) || s.Phase != Loading || len(rows) == 0 {
		return false
	}
	if s.Headers == nil {
		s.Headers = rows[0].Headers
	}
	s.Rows = append(s.Rows, rows...)
	s.Revision++
	return true
}

// SetProgress records a percentage, clamped to 0..100.
func (s *State) SetProgress(id string, percent int) bool {
	if !s.current(id) || !s.ShowProgress {
		return false
	}
	percent = min(max(percent, 0), 100)
	if percent == s.Progress {
		return false
	}
	s.Progress = percent
	return true
}

// Fail ends the session with err and drops the rows received so far.
func (s *State) Fail(id string, err error) bool {
	if !s.current(id) || s.Phase != Loading {
		return false
	}
	s.Phase = Failed
	s.Err = err
	if len(s.Rows) > 0 {
		s.Revision++
	}
	s.Rows = nil
	s.Headers = nil
	return true
}

// Succeed marks the session complete. headers replaces the header row seen
// in chunks so a header-only file still reports its columns.
func (s *State) Succeed(id string, headers []string) bool {
	if !s.current(id) || s.Phase != Loading {
		return false
	}
	s.Phase = Loaded
	if headers != nil {
		s.Headers = headers
	}
	return true
}

// ClearProgress hides the progress indicator.
func (s *State) ClearProgress(id string) bool {
	if !s.current(id) || !s.ShowProgress {
		return false
	}
	s.ShowProgress = false
	s.Progress = 0
	return true
}

// Apply routes an ingestion event to its transition. The host calls Reset
// with the new session id before pumping its events.
func (s *State) Apply(ev ingest.Event) bool {
	switch e := ev.(type) {
	case ingest.Started:
		if !s.current(e.ID) || s.Source == e.Source {
			return false
		}
		s.Source = e.Source
		return true
	case ingest.Progress:
		return s.SetProgress(e.ID, e.Percent)
	case ingest.Chunk:
		return s.AppendChunk(e.ID, e.Rows)
	case ingest.Succeeded:
		return s.Succeed(e.ID, e.Headers)
	case ingest.Failed:
		return s.Fail(e.ID, e.Err)
	case ingest.ProgressCleared:
		return s.ClearProgress(e.ID)
	default:
		return false
	}
}
