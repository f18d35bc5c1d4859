package notesync

import (
	"encoding/json"
	"sync"
	"time"

	"notia-client/internal/entity"
	"notia-client/internal/mapper"
	"notia-client/internal/pkg/logger"
	"notia-client/internal/socket"
)

// Subscriber is the event-subscription half of the connection.
// *socket.Conn satisfies it.
type Subscriber interface {
	On(event string, handler socket.Handler) func()
}

// Session describes what the reconciler is armed against: the active
// notebook/note identities and callbacks into the owning state holder.
type Session struct {
	NotebookId string
	NoteId     string

	// Local returns the current edit buffer for merging.
	Local func() Snapshot
	// ApplyNote replaces the edit buffer with the merged snapshot.
	ApplyNote func(Snapshot)
	// ApplyNotebook replaces the whole active-notebook snapshot.
	ApplyNotebook func(*entity.Notebook)
}

// Reconciler merges inbound remote change events into local editable
// state. Subscriptions are torn down and re-established on every selection
// change so handlers never accumulate across sessions.
type Reconciler struct {
	subscriber Subscriber
	strategy   MergeStrategy
	logger     logger.ILogger
	mapper     *mapper.NotebookMapper

	mu     sync.Mutex
	unsubs []func()
}

func NewReconciler(subscriber Subscriber, strategy MergeStrategy, log logger.ILogger) *Reconciler {
	if strategy == nil {
		strategy = OverwriteStrategy{}
	}
	return &Reconciler{
		subscriber: subscriber,
		strategy:   strategy,
		logger:     log,
		mapper:     mapper.NewNotebookMapper(),
	}
}

// Arm subscribes to note-updated and notebook-sync for the given session,
// replacing any previous subscriptions.
func (r *Reconciler) Arm(sess Session) {
	r.Disarm()

	unsubNote := r.subscriber.On(socket.EventNoteUpdated, func(data json.RawMessage) {
		var payload socket.NoteUpdatedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			r.logger.Warn("Reconciler", "Bad note-updated payload", map[string]interface{}{"error": err.Error()})
			return
		}
		if payload.NoteId != sess.NoteId || payload.Content == nil {
			return
		}
		merged := r.strategy.Merge(sess.Local(), RemoteUpdate{
			NoteId:     payload.NoteId,
			Title:      payload.Title,
			Content:    payload.Content,
			ReceivedAt: time.Now(),
		})
		sess.ApplyNote(merged)
	})

	unsubSync := r.subscriber.On(socket.EventNotebookSync, func(data json.RawMessage) {
		var payload socket.NotebookSyncPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			r.logger.Warn("Reconciler", "Bad notebook-sync payload", map[string]interface{}{"error": err.Error()})
			return
		}
		// Events are room-scoped server side; no id check, like the UI did.
		sess.ApplyNotebook(r.mapper.ToEntity(&payload.Notebook))
	})

	r.mu.Lock()
	r.unsubs = []func(){unsubNote, unsubSync}
	r.mu.Unlock()
}

// Disarm removes all live subscriptions. Safe to call repeatedly.
func (r *Reconciler) Disarm() {
	r.mu.Lock()
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

func (r *Reconciler) StrategyName() string {
	return r.strategy.Name()
}
