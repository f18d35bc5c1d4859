package notesync

import (
	"context"
	"sync"
	"time"

	"notia-client/internal/entity"
	"notia-client/internal/pkg/logger"
)

// NoteWriter is the remote write half of the note API.
// client.INoteService satisfies it.
type NoteWriter interface {
	Update(ctx context.Context, notebookId, noteId, title string, content []string) (*entity.Note, error)
}

// Broadcaster fans a saved delta out to the notebook's room.
// *socket.Conn satisfies it.
type Broadcaster interface {
	SendNoteUpdate(notebookId, noteId, title string, content []string)
}

// ApplyFunc optimistically mutates the shared in-memory notebook snapshot
// before the network round-trip and reports whether the owning notebook is
// currently shared (more than one member).
type ApplyFunc func(notebookId, noteId, title string, content []string) (shared bool)

// Target identifies the document a queued save will land on.
type Target struct {
	NotebookId string
	NoteId     string
}

// Saver coalesces rapid edits into one delayed remote write: every Queue
// cancels the pending save and re-arms the quiescence timer, so at most one
// write fires per idle gap and it carries the value of the last edit.
type Saver struct {
	delay     time.Duration
	notes     NoteWriter
	broadcast Broadcaster
	apply     ApplyFunc
	logger    logger.ILogger

	mu       sync.Mutex
	timer    *time.Timer
	gen      uint64
	target   Target
	status   Status
	onStatus func(Status)
	stopped  bool
}

func NewSaver(delay time.Duration, notes NoteWriter, broadcast Broadcaster, apply ApplyFunc, log logger.ILogger) *Saver {
	return &Saver{
		delay:     delay,
		notes:     notes,
		broadcast: broadcast,
		apply:     apply,
		logger:    log,
		status:    StatusSaved,
	}
}

// OnStatus registers a single status observer.
func (s *Saver) OnStatus(fn func(Status)) {
	s.mu.Lock()
	s.onStatus = fn
	s.mu.Unlock()
}

func (s *Saver) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetTarget switches the document future saves land on. Any pending save
// scheduled for the previous target is invalidated so a stale timer can
// never write against the new note's identity.
func (s *Saver) SetTarget(t Target) {
	s.mu.Lock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.target = t
	s.mu.Unlock()
	s.setStatus(StatusSaved)
}

// Queue schedules a save of the full edit buffer after the quiescence
// window, replacing any save still pending.
func (s *Saver) Queue(title string, content []string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	target := s.target
	if s.timer != nil {
		s.timer.Stop()
	}
	snapshot := append([]string(nil), content...)
	s.timer = time.AfterFunc(s.delay, func() {
		s.fire(gen, target, title, snapshot)
	})
	s.mu.Unlock()

	s.setStatus(StatusSaving)
}

func (s *Saver) fire(gen uint64, target Target, title string, content []string) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		// A newer edit, a target switch or teardown superseded this save.
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// Stale timers after navigation are legitimate: abort, never throw.
	if target.NotebookId == "" || target.NoteId == "" {
		s.setStatus(StatusError)
		return
	}

	// Optimistic: sibling components see the new value before the write
	// completes. A failed write flips status but does not roll this back.
	shared := s.apply(target.NotebookId, target.NoteId, title, content)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	updated, err := s.notes.Update(ctx, target.NotebookId, target.NoteId, title, content)
	if err != nil {
		s.logger.Warn("Saver", "Remote write failed", map[string]interface{}{
			"notebook": target.NotebookId, "note": target.NoteId, "error": err.Error(),
		})
		s.setStatus(StatusError)
		return
	}

	if shared && s.broadcast != nil {
		s.broadcast.SendNoteUpdate(target.NotebookId, target.NoteId, title, content)
	}

	if updated == nil {
		s.setStatus(StatusError)
		return
	}
	s.setStatus(StatusSaved)
}

// Stop cancels any pending save. Used on session teardown.
func (s *Saver) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
}

func (s *Saver) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	fn := s.onStatus
	s.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}
