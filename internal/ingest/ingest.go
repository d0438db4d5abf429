// Package ingest streams a CSV running log into batches of raw rows.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/verte-zerg/runboard/internal/model"
	"github.com/verte-zerg/runboard/internal/schema"
)

const (
	DefaultBatchSize  = 500
	DefaultClearDelay = 600 * time.Millisecond
)

// Source is a named byte stream. Size may be zero when unknown, in which
// case no intermediate progress is reported.
type Source struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// OpenFile opens a CSV file as a Source. The session that consumes it
// closes the file.
func OpenFile(path string) (Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return Source{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		_ = file.Close()
		return Source{}, fmt.Errorf("%s is a directory", path)
	}
	return Source{Name: filepath.Base(path), Size: info.Size(), Reader: file}, nil
}

// Ingestor starts decoding sessions.
type Ingestor struct {
	batchSize  int
	clearDelay time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithBatchSize sets the number of rows per chunk.
func WithBatchSize(n int) Option {
	return func(in *Ingestor) {
		if n > 0 {
			in.batchSize = n
		}
	}
}

// WithClearDelay sets how long the final progress stays visible.
func WithClearDelay(d time.Duration) Option {
	return func(in *Ingestor) {
		if d >= 0 {
			in.clearDelay = d
		}
	}
}

// WithClock replaces the clock used for the clear delay.
func WithClock(c clockwork.Clock) Option {
	return func(in *Ingestor) {
		if c != nil {
			in.clock = c
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(in *Ingestor) {
		if l != nil {
			in.logger = l
		}
	}
}

// New returns an Ingestor with defaults overridden by opts.
func New(opts ...Option) *Ingestor {
	in := &Ingestor{
		batchSize:  DefaultBatchSize,
		clearDelay: DefaultClearDelay,
		clock:      clockwork.NewRealClock(),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Session is one decoding run over one source.
type Session struct {
	id     string
	events chan Event
	cancel context.CancelFunc
}

// ID returns the session id carried by every event.
func (s *Session) ID() string { return s.id }

// Events returns the event stream. It is closed after the last event.
func (s *Session) Events() <-chan Event { return s.events }

// Cancel stops the session. An event already being handed over may still
// arrive; the events channel is closed once the decoder notices.
func (s *Session) Cancel() {
	s.cancel()
}

// Begin starts decoding src in a new goroutine.
func (in *Ingestor) Begin(ctx context.Context, src Source) *Session {
	ctx, cancel := context.WithCancel(ctx)
	sess := &Session{
		id:     uuid.NewString(),
		events: make(chan Event),
		cancel: cancel,
	}
	run := &run{
		in:   in,
		sess: sess,
		src:  src,
		log:  in.logger.With("session", sess.id, "source", src.Name),
	}
	go func() {
		defer close(sess.events)
		defer closeSource(src)
		defer cancel()
		run.decode(ctx)
	}()
	return sess
}

func closeSource(src Source) {
	if closer, ok := src.Reader.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			// Best-effort close; the data was already consumed.
			_ = cerr
		}
	}
}

type run struct {
	in   *Ingestor
	sess *Session
	src  Source
	log  *slog.Logger

	lastPercent int
	rows        int
	chunks      int
}

func (r *run) meta() Meta { return Meta{ID: r.sess.id} }

// send delivers ev unless the session was cancelled.
func (r *run) send(ctx context.Context, ev Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case r.sess.events <- ev:
		return true
	}
}

func (r *run) decode(ctx context.Context) {
	start := r.in.clock.Now()
	r.log.Debug("ingest started", "size", r.src.Size)
	if !r.send(ctx, Started{Meta: r.meta(), Source: r.src.Name}) {
		return
	}

	headers, err := r.stream(ctx)
	if ctx.Err() != nil {
		r.log.Debug("ingest cancelled", "rows", r.rows)
		return
	}

	var terminal []Event
	switch {
	case err != nil:
		r.log.Warn("ingest failed", "error", err, "rows", r.rows)
		terminal = []Event{Failed{Meta: r.meta(), Err: err}}
	default:
		if missing := schema.CheckSchema(headers); len(missing) > 0 {
			err := &schema.SchemaError{Missing: missing}
			r.log.Warn("ingest failed", "error", err, "headers", headers)
			terminal = []Event{Failed{Meta: r.meta(), Err: err}}
			break
		}
		r.log.Info("ingest finished",
			"rows", r.rows,
			"chunks", r.chunks,
			"elapsed", r.in.clock.Since(start),
		)
		terminal = []Event{
			Progress{Meta: r.meta(), Percent: 100},
			Succeeded{Meta: r.meta(), Headers: headers, Rows: r.rows},
		}
	}
	for _, ev := range terminal {
		if !r.send(ctx, ev) {
			return
		}
	}

	select {
	case <-ctx.Done():
		return
	case <-r.in.clock.After(r.in.clearDelay):
	}
	r.send(ctx, ProgressCleared{Meta: r.meta()})
}

// stream decodes records and emits chunks and progress. It returns the
// header row, or a *schema.DecodeError.
func (r *run) stream(ctx context.Context) ([]string, error) {
	reader := csv.NewReader(r.src.Reader)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, &schema.DecodeError{Err: err}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	r.reportProgress(ctx, reader.InputOffset())

	batch := make([]model.RawRow, 0, r.in.batchSize)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return header, &schema.DecodeError{Err: err}
		}
		batch = append(batch, model.NewRawRow(header, record))
		r.rows++
		if len(batch) == r.in.batchSize {
			if !r.flush(ctx, batch) {
				return header, ctx.Err()
			}
			batch = make([]model.RawRow, 0, r.in.batchSize)
		}
		if !r.reportProgress(ctx, reader.InputOffset()) {
			return header, ctx.Err()
		}
	}
	if len(batch) > 0 && !r.flush(ctx, batch) {
		return header, ctx.Err()
	}
	return header, nil
}

func (r *run) flush(ctx context.Context, batch []model.RawRow) bool {
	r.chunks++
	return r.send(ctx, Chunk{Meta: r.meta(), Rows: batch})
}

// reportProgress emits a Progress event when the rounded percentage moved.
// Anything short of the end of input is capped at 99.
func (r *run) reportProgress(ctx context.Context, offset int64) bool {
	if r.src.Size <= 0 {
		return true
	}
	percent := int(math.Round(float64(offset) / float64(r.src.Size) * 100))
	percent = min(max(percent, 0), 99)
	if percent == r.lastPercent {
		return true
	}
	r.lastPercent = percent
	return r.send(ctx, Progress{Meta: r.meta(), Percent: percent})
}

// Drain consumes a session synchronously, passing every event to fn, and
// returns at the first Succeeded or Failed event without waiting for the
// progress to clear. It returns the error of a Failed event, or the first
// error returned by fn. The session is cancelled before Drain returns.
func Drain(sess *Session, fn func(Event) error) error {
	defer func() {
		sess.Cancel()
		for range sess.Events() {
		}
	}()
	for ev := range sess.Events() {
		if fn != nil {
			if err := fn(ev); err != nil {
				return err
			}
		}
		switch ev := ev.(type) {
		case Failed:
			return ev.Err
		case Succeeded:
			return nil
		}
	}
	return nil
}
