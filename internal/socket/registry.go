package socket

import (
	"encoding/json"
	"sync"
)

// Handler receives the raw data portion of an envelope.
type Handler func(data json.RawMessage)

type handlerEntry struct {
	fn      Handler
	removed bool
}

// Registry maps event names to ordered handler lists. It is owned by the
// connection instance, never shared module state.
type Registry struct {
	mu       sync.Mutex
	handlers map[string][]*handlerEntry
}

func newRegistry() *Registry {
	return &Registry{handlers: make(map[string][]*handlerEntry)}
}

// On registers handler for event and returns an unsubscribe function that
// removes exactly that registration. Calling it twice is a no-op the second
// time, and it stays safe after the connection is torn down.
func (r *Registry) On(event string, handler Handler) func() {
	entry := &handlerEntry{fn: handler}

	r.mu.Lock()
	r.handlers[event] = append(r.handlers[event], entry)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if entry.removed {
			return
		}
		entry.removed = true
		list := r.handlers[event]
		for i, e := range list {
			if e == entry {
				r.handlers[event] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(r.handlers[event]) == 0 {
			delete(r.handlers, event)
		}
	}
}

// dispatch invokes all handlers for event synchronously, in registration
// order, in the calling goroutine. No queueing across distinct events.
func (r *Registry) dispatch(event string, data json.RawMessage) {
	r.mu.Lock()
	list := r.handlers[event]
	snapshot := make([]Handler, 0, len(list))
	for _, e := range list {
		snapshot = append(snapshot, e.fn)
	}
	r.mu.Unlock()

	for _, fn := range snapshot {
		fn(data)
	}
}
