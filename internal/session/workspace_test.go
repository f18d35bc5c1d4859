package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"notia-client/internal/client"
	"notia-client/internal/config"
	"notia-client/internal/dto"
	"notia-client/internal/entity"
	"notia-client/internal/notesync"
	"notia-client/internal/pkg/logger"
	"notia-client/internal/socket"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

type fakeAuth struct {
	statusErr   error
	failures    int // number of failing Status calls before success
	expireAfter int // after this many calls the session reads unauthenticated
	errAfter    int // after this many calls Status returns statusErr
	calls       int
}

func (f *fakeAuth) Status(context.Context) (*dto.AuthStatusResponse, error) {
	f.calls++
	if f.calls <= f.failures {
		return &dto.AuthStatusResponse{Authenticated: false}, f.statusErr
	}
	if f.expireAfter > 0 && f.calls > f.expireAfter {
		return &dto.AuthStatusResponse{Authenticated: false}, nil
	}
	if f.errAfter > 0 && f.calls > f.errAfter {
		return &dto.AuthStatusResponse{Authenticated: false}, f.statusErr
	}
	return &dto.AuthStatusResponse{
		Authenticated: true,
		User:          &dto.UserWire{Id: "u1", Email: "me@example.com", DisplayName: "Me"},
	}, nil
}

func (f *fakeAuth) VerifyGoogleToken(context.Context, string) (*entity.User, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAuth) Logout(context.Context) error { return nil }
func (f *fakeAuth) PeekGoogleCredential(string) (*entity.User, error) {
	return nil, errors.New("not implemented")
}

type fakeNotebooks struct {
	mu       sync.Mutex
	list     []*entity.Notebook
	listErr  error
	shareOut *entity.Notebook
	deleted  []string
}

func (f *fakeNotebooks) List(context.Context) ([]*entity.Notebook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list, f.listErr
}

func (f *fakeNotebooks) Show(_ context.Context, id string) (*entity.Notebook, error) {
	for _, nb := range f.list {
		if nb.Id == id {
			return nb, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeNotebooks) Create(_ context.Context, title string) (*entity.Notebook, error) {
	nb := &entity.Notebook{Id: "nb-new", Title: title, Users: []string{"u1"}}
	return nb, nil
}

func (f *fakeNotebooks) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeNotebooks) Share(_ context.Context, _ string, _ []string) (*entity.Notebook, error) {
	if f.shareOut == nil {
		return nil, errors.New("share failed")
	}
	return f.shareOut, nil
}

func (f *fakeNotebooks) Unshare(context.Context, string, string) error { return nil }

type fakeNotes struct {
	mu      sync.Mutex
	updates []string
	created int
}

func (f *fakeNotes) Create(_ context.Context, notebookId, title string, content []string) (*entity.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	if len(content) == 0 {
		content = []string{""}
	}
	return &entity.Note{Id: "n-new", Title: title, Content: content, NotebookId: notebookId}, nil
}

func (f *fakeNotes) Update(_ context.Context, notebookId, noteId, title string, content []string) (*entity.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, noteId)
	return &entity.Note{Id: noteId, Title: title, Content: content, NotebookId: notebookId}, nil
}

func (f *fakeNotes) Delete(context.Context, string, string) error { return nil }

type fakeUsers struct{}

func (fakeUsers) GetByIds(_ context.Context, ids []string) ([]*entity.User, error) {
	users := make([]*entity.User, len(ids))
	for i, id := range ids {
		users[i] = &entity.User{Id: id, Email: id + "@example.com", DisplayName: id}
	}
	return users, nil
}

var (
	_ client.IAuthService     = (*fakeAuth)(nil)
	_ client.INotebookService = (*fakeNotebooks)(nil)
	_ client.INoteService     = (*fakeNotes)(nil)
	_ client.IUserService     = (*fakeUsers)(nil)
)

func testConfig() *config.Config {
	return &config.Config{
		Sync: config.SyncConfig{
			DebounceMs:           10,
			AuthRetries:          2,
			AuthRetryBackoffMs:   1,
			PollIntervalSec:      1,
			AuthCheckIntervalSec: 1,
		},
	}
}

// offlineConn never dials successfully; room bookkeeping still works.
func offlineConn() *socket.Conn {
	return socket.NewConnWithDialer("ws://test", logger.NewNopLogger(),
		func(context.Context, string) (*websocket.Conn, error) {
			return nil, errors.New("offline")
		})
}

func seedNotebooks() []*entity.Notebook {
	return []*entity.Notebook{
		{
			Id:    "nb1",
			Title: "First",
			Users: []string{"u1"},
			Notes: []*entity.Note{
				{Id: "n1", Title: "One", Content: []string{"<p>one</p>"}, NotebookId: "nb1"},
				{Id: "n2", Title: "Two", Content: []string{"<p>two</p>"}, NotebookId: "nb1"},
				{Id: "n3", Title: "Three", Content: []string{"<p>three</p>"}, NotebookId: "nb1"},
			},
		},
	}
}

func newTestWorkspace(t *testing.T, notebooks *fakeNotebooks, notes *fakeNotes) *Workspace {
	t.Helper()
	w := NewWorkspace(Deps{
		Config:    testConfig(),
		Logger:    logger.NewNopLogger(),
		Auth:      &fakeAuth{},
		Notebooks: notebooks,
		Notes:     notes,
		Users:     fakeUsers{},
		Conn:      offlineConn(),
		Strategy:  notesync.OverwriteStrategy{},
	})
	t.Cleanup(w.Close)

	_, err := w.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	return w
}

func TestBootstrapRetriesAuthBeforeGivingUp(t *testing.T) {
	auth := &fakeAuth{failures: 2, statusErr: errors.New("cold start")}
	w := NewWorkspace(Deps{
		Config:    testConfig(),
		Logger:    logger.NewNopLogger(),
		Auth:      auth,
		Notebooks: &fakeNotebooks{},
		Notes:     &fakeNotes{},
		Users:     fakeUsers{},
		Conn:      offlineConn(),
	})
	defer w.Close()

	user, err := w.Bootstrap(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 3, auth.calls, "two failures then one success")
	if assert.NotNil(t, user) {
		assert.Equal(t, "me@example.com", user.Email)
	}
}

func TestBootstrapUnauthenticatedAfterRetries(t *testing.T) {
	auth := &fakeAuth{failures: 10, statusErr: errors.New("nope")}
	w := NewWorkspace(Deps{
		Config:    testConfig(),
		Logger:    logger.NewNopLogger(),
		Auth:      auth,
		Notebooks: &fakeNotebooks{},
		Notes:     &fakeNotes{},
		Users:     fakeUsers{},
		Conn:      offlineConn(),
	})
	defer w.Close()

	_, err := w.Bootstrap(context.Background())

	assert.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.Equal(t, 3, auth.calls, "initial attempt plus two retries")
}

func TestBootstrapSurvivesNotebookFetchFailure(t *testing.T) {
	notebooks := &fakeNotebooks{listErr: errors.New("backend down")}
	w := NewWorkspace(Deps{
		Config:    testConfig(),
		Logger:    logger.NewNopLogger(),
		Auth:      &fakeAuth{},
		Notebooks: notebooks,
		Notes:     &fakeNotes{},
		Users:     fakeUsers{},
		Conn:      offlineConn(),
	})
	defer w.Close()

	_, err := w.Bootstrap(context.Background())

	assert.NoError(t, err, "a failed list degrades to an empty workspace")
	assert.Empty(t, w.Notebooks())
}

func TestAuthWatchSignalsSessionExpiry(t *testing.T) {
	auth := &fakeAuth{expireAfter: 1} // bootstrap succeeds, the next check expires
	w := NewWorkspace(Deps{
		Config:    testConfig(),
		Logger:    logger.NewNopLogger(),
		Auth:      auth,
		Notebooks: &fakeNotebooks{},
		Notes:     &fakeNotes{},
		Users:     fakeUsers{},
		Conn:      offlineConn(),
	})
	defer w.Close()

	_, err := w.Bootstrap(context.Background())
	assert.NoError(t, err)

	expired := make(chan struct{})
	w.StartAuthWatch(context.Background(), func() { close(expired) })

	select {
	case <-expired:
	case <-time.After(5 * time.Second):
		t.Fatal("expiry never signalled")
	}
}

func TestAuthWatchIgnoresTransientErrors(t *testing.T) {
	auth := &fakeAuth{errAfter: 1, statusErr: errors.New("blip")}
	w := NewWorkspace(Deps{
		Config:    testConfig(),
		Logger:    logger.NewNopLogger(),
		Auth:      auth,
		Notebooks: &fakeNotebooks{},
		Notes:     &fakeNotes{},
		Users:     fakeUsers{},
		Conn:      offlineConn(),
	})
	defer w.Close()

	_, err := w.Bootstrap(context.Background())
	assert.NoError(t, err)

	expiredCalls := make(chan struct{}, 1)
	w.StartAuthWatch(context.Background(), func() { expiredCalls <- struct{}{} })

	select {
	case <-expiredCalls:
		t.Fatal("a transport blip must not expire the session")
	case <-time.After(1500 * time.Millisecond):
	}
}

func TestSelectNotebookActivatesFirstNote(t *testing.T) {
	w := newTestWorkspace(t, &fakeNotebooks{list: seedNotebooks()}, &fakeNotes{})

	assert.NoError(t, w.SelectNotebook("nb1"))

	note := w.ActiveNote()
	if assert.NotNil(t, note) {
		assert.Equal(t, "n1", note.Id)
	}
	title, blocks := w.Buffer()
	assert.Equal(t, "One", title)
	assert.Equal(t, []string{"<p>one</p>"}, blocks)
}

func TestSelectUnknownNotebookFails(t *testing.T) {
	w := newTestWorkspace(t, &fakeNotebooks{list: seedNotebooks()}, &fakeNotes{})

	assert.ErrorIs(t, w.SelectNotebook("ghost"), ErrNotFound)
}

func TestEditQueuesDebouncedSave(t *testing.T) {
	notes := &fakeNotes{}
	w := newTestWorkspace(t, &fakeNotebooks{list: seedNotebooks()}, notes)
	assert.NoError(t, w.SelectNotebook("nb1"))

	w.EditBlock(0, "<p>typing</p>")
	w.EditBlock(0, "<p>typing more</p>")

	assert.Eventually(t, func() bool {
		notes.mu.Lock()
		defer notes.mu.Unlock()
		return len(notes.updates) == 1
	}, 2*time.Second, 10*time.Millisecond, "coalesced into one write")
	assert.Eventually(t, func() bool {
		return w.SaveStatus() == notesync.StatusSaved
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOptimisticEditVisibleBeforeSaveLands(t *testing.T) {
	w := newTestWorkspace(t, &fakeNotebooks{list: seedNotebooks()}, &fakeNotes{})
	assert.NoError(t, w.SelectNotebook("nb1"))

	w.EditTitle("Renamed")

	_, blocks := w.Buffer()
	assert.Equal(t, []string{"<p>one</p>"}, blocks)
	title, _ := w.Buffer()
	assert.Equal(t, "Renamed", title)
}

func TestDeleteActiveNoteActivatesPreviousByIndex(t *testing.T) {
	w := newTestWorkspace(t, &fakeNotebooks{list: seedNotebooks()}, &fakeNotes{})
	assert.NoError(t, w.SelectNotebook("nb1"))
	assert.NoError(t, w.SelectNote("n2"))

	assert.NoError(t, w.DeleteNote(context.Background(), "n2"))

	note := w.ActiveNote()
	if assert.NotNil(t, note) {
		assert.Equal(t, "n1", note.Id, "previous note by index becomes active")
	}
}

func TestDeleteFirstActiveNoteActivatesNewFirst(t *testing.T) {
	w := newTestWorkspace(t, &fakeNotebooks{list: seedNotebooks()}, &fakeNotes{})
	assert.NoError(t, w.SelectNotebook("nb1"))

	assert.NoError(t, w.DeleteNote(context.Background(), "n1"))

	note := w.ActiveNote()
	if assert.NotNil(t, note) {
		assert.Equal(t, "n2", note.Id)
	}
}

func TestDeleteLastRemainingNoteClearsSelection(t *testing.T) {
	list := []*entity.Notebook{{
		Id:    "nb1",
		Title: "Solo",
		Users: []string{"u1"},
		Notes: []*entity.Note{{Id: "n1", Title: "Only", Content: []string{""}, NotebookId: "nb1"}},
	}}
	w := newTestWorkspace(t, &fakeNotebooks{list: list}, &fakeNotes{})
	assert.NoError(t, w.SelectNotebook("nb1"))

	assert.NoError(t, w.DeleteNote(context.Background(), "n1"))

	assert.Nil(t, w.ActiveNote())
}

func TestDeleteInactiveNoteKeepsSelection(t *testing.T) {
	w := newTestWorkspace(t, &fakeNotebooks{list: seedNotebooks()}, &fakeNotes{})
	assert.NoError(t, w.SelectNotebook("nb1"))
	assert.NoError(t, w.SelectNote("n1"))

	assert.NoError(t, w.DeleteNote(context.Background(), "n3"))

	note := w.ActiveNote()
	if assert.NotNil(t, note) {
		assert.Equal(t, "n1", note.Id)
	}
	nb := w.ActiveNotebook()
	assert.Len(t, nb.Notes, 2)
}

func TestCreateNoteAppendsAndSelects(t *testing.T) {
	w := newTestWorkspace(t, &fakeNotebooks{list: seedNotebooks()}, &fakeNotes{})
	assert.NoError(t, w.SelectNotebook("nb1"))

	note, err := w.CreateNote(context.Background(), "Fresh", nil)

	assert.NoError(t, err)
	assert.Equal(t, "n-new", note.Id)
	assert.Equal(t, "n-new", w.ActiveNote().Id)
	assert.Len(t, w.ActiveNotebook().Notes, 4)
}

func TestShareReplacesNotebookSnapshot(t *testing.T) {
	shared := &entity.Notebook{
		Id:    "nb1",
		Title: "First",
		Users: []string{"u1", "u2"},
		Notes: seedNotebooks()[0].Notes,
	}
	notebooks := &fakeNotebooks{list: seedNotebooks(), shareOut: shared}
	w := newTestWorkspace(t, notebooks, &fakeNotes{})
	assert.NoError(t, w.SelectNotebook("nb1"))

	nb, err := w.Share(context.Background(), "friend@example.com")

	assert.NoError(t, err)
	assert.True(t, nb.IsShared())
	assert.Same(t, nb, w.ActiveNotebook(), "the server response replaces the active snapshot")
}

func TestShareWithoutActiveNotebookFails(t *testing.T) {
	w := newTestWorkspace(t, &fakeNotebooks{list: seedNotebooks()}, &fakeNotes{})

	_, err := w.Share(context.Background(), "friend@example.com")

	assert.ErrorIs(t, err, ErrNoActiveNotebook)
}

func TestMembersResolvesActiveNotebookUsers(t *testing.T) {
	list := seedNotebooks()
	list[0].Users = []string{"u1", "u2"}
	w := newTestWorkspace(t, &fakeNotebooks{list: list}, &fakeNotes{})
	assert.NoError(t, w.SelectNotebook("nb1"))

	members, err := w.Members(context.Background())

	assert.NoError(t, err)
	if assert.Len(t, members, 2) {
		assert.Equal(t, "u1@example.com", members[0].Email)
	}
}

func TestDeleteNotebookClearsActiveState(t *testing.T) {
	notebooks := &fakeNotebooks{list: seedNotebooks()}
	w := newTestWorkspace(t, notebooks, &fakeNotes{})
	assert.NoError(t, w.SelectNotebook("nb1"))

	assert.NoError(t, w.DeleteNotebook(context.Background(), "nb1"))

	assert.Nil(t, w.ActiveNotebook())
	assert.Nil(t, w.ActiveNote())
	assert.Empty(t, w.Notebooks())
	assert.Equal(t, []string{"nb1"}, notebooks.deleted)
}

func TestStructuralEditsQueueSaveButArrowsDoNot(t *testing.T) {
	notes := &fakeNotes{}
	w := newTestWorkspace(t, &fakeNotebooks{list: seedNotebooks()}, notes)
	assert.NoError(t, w.SelectNotebook("nb1"))

	w.ArrowDown()
	w.ArrowUp()

	time.Sleep(60 * time.Millisecond)
	notes.mu.Lock()
	arrowsQueued := len(notes.updates)
	notes.mu.Unlock()
	assert.Zero(t, arrowsQueued, "cursor moves never trigger saves")

	w.PressEnter()
	assert.Eventually(t, func() bool {
		notes.mu.Lock()
		defer notes.mu.Unlock()
		return len(notes.updates) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
