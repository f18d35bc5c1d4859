package socket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryDispatchInRegistrationOrder(t *testing.T) {
	r := newRegistry()

	var order []int
	r.On("ev", func(json.RawMessage) { order = append(order, 1) })
	r.On("ev", func(json.RawMessage) { order = append(order, 2) })
	r.On("ev", func(json.RawMessage) { order = append(order, 3) })

	r.dispatch("ev", nil)

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestRegistryUnsubscribeRemovesOnlyThatHandler(t *testing.T) {
	r := newRegistry()

	var calls []string
	r.On("ev", func(json.RawMessage) { calls = append(calls, "a") })
	unsubB := r.On("ev", func(json.RawMessage) { calls = append(calls, "b") })
	r.On("ev", func(json.RawMessage) { calls = append(calls, "c") })

	unsubB()
	r.dispatch("ev", nil)

	assert.Equal(t, []string{"a", "c"}, calls)
}

func TestRegistryUnsubscribeIsIdempotent(t *testing.T) {
	r := newRegistry()

	calls := 0
	handler := func(json.RawMessage) { calls++ }
	unsub1 := r.On("ev", handler)
	r.On("ev", handler)

	// The same closure registered twice: removing one registration twice
	// must not take the second one with it.
	unsub1()
	unsub1()
	r.dispatch("ev", nil)

	assert.Equal(t, 1, calls)
}

func TestRegistryDispatchUnknownEventIsNoop(t *testing.T) {
	r := newRegistry()
	r.dispatch("nobody-listens", json.RawMessage(`{}`))
}

func TestRegistryExactEventNameMatch(t *testing.T) {
	r := newRegistry()

	calls := 0
	r.On("note-updated", func(json.RawMessage) { calls++ })

	r.dispatch("note-update", nil)
	r.dispatch("NOTE-UPDATED", nil)
	r.dispatch("note-updated", nil)

	assert.Equal(t, 1, calls)
}

func TestRegistryHandlerReceivesRawData(t *testing.T) {
	r := newRegistry()

	var got json.RawMessage
	r.On("ev", func(data json.RawMessage) { got = data })

	payload := json.RawMessage(`{"noteId":"n1"}`)
	r.dispatch("ev", payload)

	assert.JSONEq(t, `{"noteId":"n1"}`, string(got))
}
