package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"notia-client/internal/client"
	"notia-client/internal/config"
	"notia-client/internal/editor"
	"notia-client/internal/entity"
	"notia-client/internal/notesync"
	"notia-client/internal/pkg/logger"
	"notia-client/internal/socket"
)

var (
	ErrNoActiveNotebook = errors.New("no active notebook")
	ErrNotFound         = errors.New("not found")
)

// Workspace owns the client session: the shared notebooks snapshot, the
// active selection, the edit buffer and the save/reconcile lifecycles.
// The snapshot is replaced whole-value on every mutation so observers
// always see a consistent state; a mutex stands in for the browser's
// single event loop.
type Workspace struct {
	cfg    *config.Config
	logger logger.ILogger

	auth         client.IAuthService
	notebooksAPI client.INotebookService
	notesAPI     client.INoteService
	usersAPI     client.IUserService
	conn         *socket.Conn

	saver      *notesync.Saver
	reconciler *notesync.Reconciler

	mu             sync.Mutex
	user           *entity.User
	notebooks      []*entity.Notebook
	activeNotebook *entity.Notebook
	activeNote     *entity.Note
	doc            *editor.Document
	lastEdit       time.Time
	pollStop       chan struct{}
	authStop       chan struct{}
}

type Deps struct {
	Config    *config.Config
	Logger    logger.ILogger
	Auth      client.IAuthService
	Notebooks client.INotebookService
	Notes     client.INoteService
	Users     client.IUserService
	Conn      *socket.Conn
	Strategy  notesync.MergeStrategy
}

func NewWorkspace(d Deps) *Workspace {
	w := &Workspace{
		cfg:          d.Config,
		logger:       d.Logger,
		auth:         d.Auth,
		notebooksAPI: d.Notebooks,
		notesAPI:     d.Notes,
		usersAPI:     d.Users,
		conn:         d.Conn,
		doc:          editor.NewDocument("", nil),
	}
	w.saver = notesync.NewSaver(
		time.Duration(d.Config.Sync.DebounceMs)*time.Millisecond,
		d.Notes,
		d.Conn,
		w.applyOptimistic,
		d.Logger,
	)
	w.reconciler = notesync.NewReconciler(d.Conn, d.Strategy, d.Logger)
	return w
}

// Bootstrap verifies the session and loads the notebook list. The auth
// check retries a bounded number of times with fixed backoff to absorb the
// session-establishment race right after login; an unauthenticated result
// after that routes the caller to the login state via ErrUnauthenticated.
func (w *Workspace) Bootstrap(ctx context.Context) (*entity.User, error) {
	backoff := time.Duration(w.cfg.Sync.AuthRetryBackoffMs) * time.Millisecond

	var status = struct {
		authenticated bool
		user          *entity.User
	}{}
	for attempt := 0; ; attempt++ {
		resp, err := w.auth.Status(ctx)
		if err == nil && resp.Authenticated {
			status.authenticated = true
			if resp.User != nil {
				status.user = &entity.User{
					Id:          resp.User.Id,
					Email:       resp.User.Email,
					DisplayName: resp.User.DisplayName,
				}
			}
			break
		}
		if attempt >= w.cfg.Sync.AuthRetries {
			return nil, client.ErrUnauthenticated
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	notebooks, err := w.notebooksAPI.List(ctx)
	if err != nil {
		// Non-fatal: an empty workspace beats a crashed one.
		w.logger.Warn("Workspace", "Failed to fetch notebooks", map[string]interface{}{"error": err.Error()})
		notebooks = []*entity.Notebook{}
	}

	w.mu.Lock()
	w.user = status.user
	w.notebooks = notebooks
	w.mu.Unlock()

	w.conn.Connect()
	return status.user, nil
}

func (w *Workspace) User() *entity.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.user
}

func (w *Workspace) Notebooks() []*entity.Notebook {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*entity.Notebook(nil), w.notebooks...)
}

func (w *Workspace) ActiveNotebook() *entity.Notebook {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeNotebook
}

func (w *Workspace) ActiveNote() *entity.Note {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeNote
}

// Buffer returns a copy of the current edit buffer.
func (w *Workspace) Buffer() (title string, blocks []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doc.Title, append([]string(nil), w.doc.Blocks...)
}

func (w *Workspace) SaveStatus() notesync.Status {
	return w.saver.Status()
}

func (w *Workspace) OnSaveStatus(fn func(notesync.Status)) {
	w.saver.OnStatus(fn)
}

// SelectNotebook makes a notebook active, joins its update room and
// activates its first note (or clears the buffer when it has none).
func (w *Workspace) SelectNotebook(notebookId string) error {
	w.mu.Lock()
	var target *entity.Notebook
	for _, nb := range w.notebooks {
		if nb.Id == notebookId {
			target = nb
			break
		}
	}
	if target == nil {
		w.mu.Unlock()
		return fmt.Errorf("notebook %s: %w", notebookId, ErrNotFound)
	}
	w.activeNotebook = target
	var first *entity.Note
	if len(target.Notes) > 0 {
		first = target.Notes[0]
	}
	saveTarget := w.setActiveNoteLocked(first)
	w.mu.Unlock()

	w.saver.SetTarget(saveTarget)
	// Joining the new room does not leave the old one; the server scopes
	// fan-out per room and stale memberships are harmless here.
	w.conn.JoinNotebook(notebookId)
	w.rearmReconciler()
	return nil
}

// SelectNote activates a note inside the active notebook and resets the
// edit buffer and save target to it.
func (w *Workspace) SelectNote(noteId string) error {
	w.mu.Lock()
	if w.activeNotebook == nil {
		w.mu.Unlock()
		return ErrNoActiveNotebook
	}
	note := w.activeNotebook.FindNote(noteId)
	if note == nil {
		w.mu.Unlock()
		return fmt.Errorf("note %s: %w", noteId, ErrNotFound)
	}
	target := w.setActiveNoteLocked(note)
	w.mu.Unlock()

	w.saver.SetTarget(target)
	w.rearmReconciler()
	return nil
}

// setActiveNoteLocked resets selection-owned state and returns the save
// target for the caller to apply after releasing w.mu (the saver's status
// callback must never run under the workspace lock). Caller holds w.mu.
func (w *Workspace) setActiveNoteLocked(note *entity.Note) notesync.Target {
	w.activeNote = note
	if note != nil {
		w.doc.Reset(note.Title, note.Content)
		return notesync.Target{NotebookId: note.NotebookId, NoteId: note.Id}
	}
	w.doc.Reset("", nil)
	return notesync.Target{}
}

func (w *Workspace) rearmReconciler() {
	w.mu.Lock()
	notebookId, noteId := "", ""
	if w.activeNotebook != nil {
		notebookId = w.activeNotebook.Id
	}
	if w.activeNote != nil {
		noteId = w.activeNote.Id
	}
	w.mu.Unlock()

	if notebookId == "" {
		w.reconciler.Disarm()
		return
	}
	w.reconciler.Arm(notesync.Session{
		NotebookId:    notebookId,
		NoteId:        noteId,
		Local:         w.localSnapshot,
		ApplyNote:     w.applyRemoteNote,
		ApplyNotebook: w.applyNotebookSync,
	})
}

func (w *Workspace) localSnapshot() notesync.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return notesync.Snapshot{
		Title:    w.doc.Title,
		Content:  append([]string(nil), w.doc.Blocks...),
		EditedAt: w.lastEdit,
	}
}

func (w *Workspace) applyRemoteNote(s notesync.Snapshot) {
	w.mu.Lock()
	w.doc.ApplyRemote(s.Title, s.Content)
	w.mu.Unlock()
}

// applyNotebookSync replaces the active notebook snapshot wholesale. If
// the active note survived the sync its buffer is refreshed; if it is
// gone the buffer stays as it was, without forced deselection.
func (w *Workspace) applyNotebookSync(nb *entity.Notebook) {
	if nb == nil {
		return
	}
	w.mu.Lock()
	w.replaceNotebookLocked(nb)
	w.activeNotebook = nb
	if w.activeNote != nil {
		if refreshed := nb.FindNote(w.activeNote.Id); refreshed != nil {
			w.activeNote = refreshed
			w.doc.ApplyRemote(refreshed.Title, refreshed.Content)
		}
	}
	w.mu.Unlock()
}

// replaceNotebookLocked swaps one notebook into a fresh snapshot slice.
// Caller holds w.mu.
func (w *Workspace) replaceNotebookLocked(nb *entity.Notebook) {
	next := make([]*entity.Notebook, len(w.notebooks))
	replaced := false
	for i, existing := range w.notebooks {
		if existing.Id == nb.Id {
			next[i] = nb
			replaced = true
		} else {
			next[i] = existing
		}
	}
	if !replaced {
		next = append(next, nb)
	}
	w.notebooks = next
}

// EditTitle and EditBlock feed keystrokes into the buffer and schedule a
// debounced save of the full (title, content) pair.
func (w *Workspace) EditTitle(title string) {
	w.mu.Lock()
	w.doc.SetTitle(title)
	w.lastEdit = time.Now()
	title, blocks := w.doc.Title, append([]string(nil), w.doc.Blocks...)
	w.mu.Unlock()

	w.saver.Queue(title, blocks)
}

func (w *Workspace) EditBlock(index int, html string) {
	w.mu.Lock()
	w.doc.SetBlock(index, html)
	w.lastEdit = time.Now()
	title, blocks := w.doc.Title, append([]string(nil), w.doc.Blocks...)
	w.mu.Unlock()

	w.saver.Queue(title, blocks)
}

// Keystroke navigation. Structural changes (Enter, Backspace, formatting)
// queue a save; pure cursor moves do not.
func (w *Workspace) PressEnter() {
	w.mutateDoc(func(d *editor.Document) bool {
		d.PressEnter()
		return true
	})
}

func (w *Workspace) PressBackspace() {
	w.mutateDoc(func(d *editor.Document) bool {
		return d.PressBackspace()
	})
}

func (w *Workspace) ArrowUp() {
	w.mutateDoc(func(d *editor.Document) bool {
		d.ArrowUp()
		return false
	})
}

func (w *Workspace) ArrowDown() {
	w.mutateDoc(func(d *editor.Document) bool {
		d.ArrowDown()
		return false
	})
}

func (w *Workspace) ToggleFormat(flag editor.Format) {
	w.mutateDoc(func(d *editor.Document) bool {
		d.ToggleFormat(flag)
		return true
	})
}

func (w *Workspace) CursorPosition() socket.CursorPosition {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.doc.Cursor()
	return socket.CursorPosition{Block: c.Block, Offset: c.Offset}
}

func (w *Workspace) mutateDoc(op func(*editor.Document) bool) {
	w.mu.Lock()
	changed := op(w.doc)
	if changed {
		w.lastEdit = time.Now()
	}
	title, blocks := w.doc.Title, append([]string(nil), w.doc.Blocks...)
	w.mu.Unlock()

	if changed {
		w.saver.Queue(title, blocks)
	}
}

// applyOptimistic rebuilds the snapshot with the new title/content before
// the remote write completes. Failed writes are not rolled back; the save
// status carries the error instead.
func (w *Workspace) applyOptimistic(notebookId, noteId, title string, content []string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	shared := false
	next := make([]*entity.Notebook, len(w.notebooks))
	for i, nb := range w.notebooks {
		if nb.Id != notebookId {
			next[i] = nb
			continue
		}
		shared = nb.IsShared()
		clone := &entity.Notebook{
			Id:    nb.Id,
			Title: nb.Title,
			Users: nb.Users,
			Notes: make([]*entity.Note, len(nb.Notes)),
		}
		for j, note := range nb.Notes {
			if note.Id != noteId {
				clone.Notes[j] = note
				continue
			}
			clone.Notes[j] = &entity.Note{
				Id:         note.Id,
				Title:      title,
				Content:    append([]string(nil), content...),
				NotebookId: note.NotebookId,
			}
			if w.activeNote != nil && w.activeNote.Id == noteId {
				w.activeNote = clone.Notes[j]
			}
		}
		if w.activeNotebook != nil && w.activeNotebook.Id == notebookId {
			w.activeNotebook = clone
		}
		next[i] = clone
	}
	w.notebooks = next
	return shared
}

func (w *Workspace) CreateNotebook(ctx context.Context, title string) (*entity.Notebook, error) {
	nb, err := w.notebooksAPI.Create(ctx, title)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.notebooks = append(append([]*entity.Notebook(nil), w.notebooks...), nb)
	w.mu.Unlock()
	return nb, nil
}

func (w *Workspace) DeleteNotebook(ctx context.Context, notebookId string) error {
	if err := w.notebooksAPI.Delete(ctx, notebookId); err != nil {
		return err
	}

	w.mu.Lock()
	next := make([]*entity.Notebook, 0, len(w.notebooks))
	for _, nb := range w.notebooks {
		if nb.Id != notebookId {
			next = append(next, nb)
		}
	}
	w.notebooks = next
	wasActive := w.activeNotebook != nil && w.activeNotebook.Id == notebookId
	if wasActive {
		w.activeNotebook = nil
		w.setActiveNoteLocked(nil)
	}
	w.mu.Unlock()

	if wasActive {
		w.saver.SetTarget(notesync.Target{})
		w.conn.LeaveNotebook(notebookId)
		w.reconciler.Disarm()
	}
	return nil
}

func (w *Workspace) CreateNote(ctx context.Context, title string, content []string) (*entity.Note, error) {
	w.mu.Lock()
	if w.activeNotebook == nil {
		w.mu.Unlock()
		return nil, ErrNoActiveNotebook
	}
	notebookId := w.activeNotebook.Id
	w.mu.Unlock()

	note, err := w.notesAPI.Create(ctx, notebookId, title, content)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	for _, nb := range w.notebooks {
		if nb.Id == notebookId {
			clone := &entity.Notebook{
				Id:    nb.Id,
				Title: nb.Title,
				Users: nb.Users,
				Notes: append(append([]*entity.Note(nil), nb.Notes...), note),
			}
			w.replaceNotebookLocked(clone)
			if w.activeNotebook != nil && w.activeNotebook.Id == notebookId {
				w.activeNotebook = clone
			}
			break
		}
	}
	target := w.setActiveNoteLocked(note)
	w.mu.Unlock()

	w.saver.SetTarget(target)
	w.rearmReconciler()
	return note, nil
}

// DeleteNote removes a note. When the active note is deleted the previous
// note by index becomes active, falling back to the first, then to none.
func (w *Workspace) DeleteNote(ctx context.Context, noteId string) error {
	w.mu.Lock()
	if w.activeNotebook == nil {
		w.mu.Unlock()
		return ErrNoActiveNotebook
	}
	notebookId := w.activeNotebook.Id
	w.mu.Unlock()

	if err := w.notesAPI.Delete(ctx, notebookId, noteId); err != nil {
		return err
	}

	w.mu.Lock()
	var clone *entity.Notebook
	deletedIndex := -1
	for _, nb := range w.notebooks {
		if nb.Id != notebookId {
			continue
		}
		notes := make([]*entity.Note, 0, len(nb.Notes))
		for i, note := range nb.Notes {
			if note.Id == noteId {
				deletedIndex = i
				continue
			}
			notes = append(notes, note)
		}
		clone = &entity.Notebook{Id: nb.Id, Title: nb.Title, Users: nb.Users, Notes: notes}
		w.replaceNotebookLocked(clone)
		break
	}
	if clone != nil && w.activeNotebook != nil && w.activeNotebook.Id == notebookId {
		w.activeNotebook = clone
	}

	wasActive := w.activeNote != nil && w.activeNote.Id == noteId
	var target notesync.Target
	if wasActive && clone != nil {
		var next *entity.Note
		if len(clone.Notes) > 0 {
			if deletedIndex > 0 {
				next = clone.Notes[deletedIndex-1]
			} else {
				next = clone.Notes[0]
			}
		}
		target = w.setActiveNoteLocked(next)
	}
	w.mu.Unlock()

	if wasActive {
		w.saver.SetTarget(target)
		w.rearmReconciler()
	}
	return nil
}

// Share appends a member to the active notebook by email. The refreshed
// membership from the server replaces the local snapshot immediately; no
// manual refetch is needed. Validation and API errors surface to the
// caller for inline display.
func (w *Workspace) Share(ctx context.Context, email string) (*entity.Notebook, error) {
	w.mu.Lock()
	if w.activeNotebook == nil {
		w.mu.Unlock()
		return nil, ErrNoActiveNotebook
	}
	notebookId := w.activeNotebook.Id
	w.mu.Unlock()

	updated, err := w.notebooksAPI.Share(ctx, notebookId, []string{email})
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.replaceNotebookLocked(updated)
	if w.activeNotebook != nil && w.activeNotebook.Id == updated.Id {
		w.activeNotebook = updated
	}
	w.mu.Unlock()
	return updated, nil
}

// Members resolves the active notebook's user ids to addressable users.
func (w *Workspace) Members(ctx context.Context) ([]*entity.User, error) {
	w.mu.Lock()
	if w.activeNotebook == nil {
		w.mu.Unlock()
		return nil, ErrNoActiveNotebook
	}
	userIds := append([]string(nil), w.activeNotebook.Users...)
	w.mu.Unlock()

	if len(userIds) == 0 {
		return nil, nil
	}
	return w.usersAPI.GetByIds(ctx, userIds)
}

// StartPolling refetches the notebook list on a fixed interval and only
// replaces the snapshot when new notebooks appeared, as a fallback for
// creations that happen outside any joined room.
func (w *Workspace) StartPolling(ctx context.Context) {
	w.mu.Lock()
	if w.pollStop != nil {
		w.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	w.pollStop = stop
	w.mu.Unlock()

	interval := time.Duration(w.cfg.Sync.PollIntervalSec) * time.Second
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				fetched, err := w.notebooksAPI.List(ctx)
				if err != nil {
					continue
				}
				w.mu.Lock()
				if len(fetched) > len(w.notebooks) {
					w.notebooks = fetched
				}
				w.mu.Unlock()
			}
		}
	}()
}

// StartAuthWatch re-checks the session on a fixed interval and invokes
// onExpired once when the server definitively reports it gone. Transient
// transport errors do not expire the session; only an unauthenticated
// answer does.
func (w *Workspace) StartAuthWatch(ctx context.Context, onExpired func()) {
	w.mu.Lock()
	if w.authStop != nil {
		w.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	w.authStop = stop
	w.mu.Unlock()

	interval := time.Duration(w.cfg.Sync.AuthCheckIntervalSec) * time.Second
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				resp, err := w.auth.Status(ctx)
				expired := errors.Is(err, client.ErrUnauthenticated) ||
					(err == nil && !resp.Authenticated)
				if expired {
					w.logger.Warn("Workspace", "Session expired", nil)
					if onExpired != nil {
						onExpired()
					}
					return
				}
			}
		}
	}()
}

// Close tears the session down: pending saves are cancelled, handlers are
// removed and the socket is disconnected.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.pollStop != nil {
		close(w.pollStop)
		w.pollStop = nil
	}
	if w.authStop != nil {
		close(w.authStop)
		w.authStop = nil
	}
	w.mu.Unlock()

	w.saver.Stop()
	w.reconciler.Disarm()
	w.conn.Disconnect()
}
