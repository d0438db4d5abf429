package ingest

import "github.com/verte-zerg/runboard/internal/model"

// Event is emitted by a Session while it decodes a source.
type Event interface {
	SessionID() string
}

// Meta tags an event with the session that produced it.
type Meta struct {
	ID string
}

// SessionID returns the id of the emitting session.
func (m Meta) SessionID() string { return m.ID }

// Started is the first event of every session.
type Started struct {
	Meta
	Source string
}

// Progress reports the share of the source consumed so far, 0..100.
type Progress struct {
	Meta
	Percent int
}

// Chunk carries a batch of decoded rows in file order. The slice is owned by
// the receiver.
type Chunk struct {
	Meta
	Rows []model.RawRow
}

// Succeeded is emitted once the whole source decoded and passed the schema
// check. Rows is the number of records delivered through chunks.
type Succeeded struct {
	Meta
	Headers []string
	Rows    int
}

// Failed ends a session with a *schema.SchemaError or *schema.DecodeError.
type Failed struct {
	Meta
	Err error
}

// ProgressCleared follows a terminal event after the clear delay.
type ProgressCleared struct {
	Meta
}
