package service

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"matrixnotes/internal/note/model"
	"matrixnotes/internal/note/repository"
	"matrixnotes/pkg/logger"
	"matrixnotes/store"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func newTestService(t *testing.T) (*NoteService, store.Store) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.EnsureSchema(db))

	repo := repository.NewNoteRepository(db)
	st := store.NewSQLStore(repo)
	return NewNoteService(repo, st), st
}

func TestCreateNoteValidatesText(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateNote("user1", "")
	assert.ErrorIs(t, err, ErrEmptyText)
	_, err = svc.CreateNote("user1", "   ")
	assert.ErrorIs(t, err, ErrEmptyText)

	notes, err := svc.ListNotes("user1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestCreateNoteTrimsText(t *testing.T) {
	svc, _ := newTestService(t)

	id, err := svc.CreateNote("user1", "  note text  ")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	notes, err := svc.ListNotes("user1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "note text", notes[0].Text)
	assert.Equal(t, "user1", notes[0].OwnerID)
}

func TestListNotesNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateNote("user1", "first")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = svc.CreateNote("user1", "second")
	require.NoError(t, err)

	notes, err := svc.ListNotes("user1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "second", notes[0].Text)
	assert.Equal(t, "first", notes[1].Text)
}

func TestUpdateNoteChecksOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	id, err := svc.CreateNote("alice", "alice's note")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateNote("bob", id, "hijacked"), ErrForbidden)
	assert.ErrorIs(t, svc.UpdateNote("alice", "missing", "text"), ErrNotFound)
	assert.ErrorIs(t, svc.UpdateNote("alice", id, "  "), ErrEmptyText)

	require.NoError(t, svc.UpdateNote("alice", id, " edited "))
	notes, err := svc.ListNotes("alice")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "edited", notes[0].Text)
}

func TestDeleteNoteChecksOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	id, err := svc.CreateNote("alice", "alice's note")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteNote("bob", id), ErrForbidden)
	assert.ErrorIs(t, svc.DeleteNote("alice", "missing"), ErrNotFound)

	require.NoError(t, svc.DeleteNote("alice", id))
	notes, err := svc.ListNotes("alice")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

// REST-driven mutations must reach live subscribers too, since they go
// through the same store.
func TestServiceMutationsReachSubscribers(t *testing.T) {
	svc, st := newTestService(t)

	ch := make(chan []model.Note, 16)
	unsubscribe, err := st.Subscribe("user1",
		func(notes []model.Note) { ch <- notes },
		func(err error) { t.Errorf("unexpected subscription error: %v", err) },
	)
	require.NoError(t, err)
	t.Cleanup(unsubscribe)

	recv := func() []model.Note {
		select {
		case s := <-ch:
			return s
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for snapshot")
			return nil
		}
	}
	require.Empty(t, recv())

	id, err := svc.CreateNote("user1", "from rest")
	require.NoError(t, err)
	notes := recv()
	require.Len(t, notes, 1)
	assert.Equal(t, id, notes[0].ID)

	require.NoError(t, svc.DeleteNote("user1", id))
	assert.Empty(t, recv())
}
