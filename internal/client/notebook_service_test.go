package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"notia-client/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(server.URL, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNotebookListParsesWireIds(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/notebooks", r.URL.Path)
		w.Write([]byte(`[
			{"_id":"nb1","title":"First","users":["u1"],"notes":[
				{"_id":"n1","title":"Note","content":["<p>x</p>"]}
			]},
			{"_id":"nb2","title":"Second","users":["u1","u2"],"notes":[]}
		]`))
	}))
	svc := NewNotebookService(c)

	notebooks, err := svc.List(context.Background())

	assert.NoError(t, err)
	if assert.Len(t, notebooks, 2) {
		assert.Equal(t, "nb1", notebooks[0].Id)
		assert.Equal(t, "nb1", notebooks[0].Notes[0].NotebookId)
		assert.False(t, notebooks[0].IsShared())
		assert.True(t, notebooks[1].IsShared())
	}
}

func TestNotebookCreateDefaultsTitle(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "Untitled", body["title"])
		w.Write([]byte(`{"_id":"nb1","title":"Untitled","users":["u1"],"notes":[]}`))
	}))
	svc := NewNotebookService(c)

	nb, err := svc.Create(context.Background(), "")

	assert.NoError(t, err)
	assert.Equal(t, "Untitled", nb.Title)
}

func TestNotebookShareRoundTrip(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/notebooks/nb1/share", r.URL.Path)

		var body map[string][]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, []string{"friend@example.com"}, body["emails"])

		w.Write([]byte(`{"notebook":{"_id":"nb1","title":"Shared","users":["u1","u2"],"notes":[]}}`))
	}))
	svc := NewNotebookService(c)

	nb, err := svc.Share(context.Background(), "nb1", []string{"friend@example.com"})

	assert.NoError(t, err)
	assert.True(t, nb.IsShared())
	assert.Len(t, nb.Users, 2)
}

func TestNotebookShareRejectsBadEmailBeforeNetwork(t *testing.T) {
	called := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	svc := NewNotebookService(c)

	tests := []struct {
		name   string
		emails []string
	}{
		{name: "malformed address", emails: []string{"not-an-email"}},
		{name: "empty list", emails: []string{}},
		{name: "one bad among good", emails: []string{"ok@example.com", "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Share(context.Background(), "nb1", tt.emails)
			assert.Error(t, err)
		})
	}
	assert.False(t, called, "validation failures must not reach the server")
}

func TestUnauthorizedMapsToErrUnauthenticated(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	svc := NewNotebookService(c)

	_, err := svc.List(context.Background())

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestServerErrorSurfacesAsAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	svc := NewNotebookService(c)

	_, err := svc.List(context.Background())

	var apiErr *APIError
	if assert.ErrorAs(t, err, &apiErr) {
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.Equal(t, "boom", apiErr.Body)
	}
}
