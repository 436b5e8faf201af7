// Package notesync owns the per-session state of a user's note list: it
// subscribes to the store's live owner-filtered query, reconciles incoming
// snapshots wholesale, and coordinates the single edit session alongside
// create/update/delete commands. The store remains the source of truth; the
// controller's list is a replaceable cache of the latest snapshot.
package notesync

import (
	"errors"
	"strings"
	"sync"

	"matrixnotes/internal/note/model"
	"matrixnotes/store"
)

var (
	// ErrNotActive means no user session is active on the controller.
	ErrNotActive = errors.New("no active user session")
	// ErrEmptyText rejects notes whose text trims down to nothing.
	ErrEmptyText = errors.New("note text cannot be empty")
	// ErrStaleNote means the referenced note is not in the current snapshot,
	// e.g. it was deleted concurrently from another session.
	ErrStaleNote = errors.New("note no longer exists")
	// ErrNoSession means a commit was requested with no note being edited.
	ErrNoSession = errors.New("no note is being edited")
)

// EditSession tracks the single note being edited and its unsaved draft.
// The draft stays decoupled from the committed text until CommitEdit.
type EditSession struct {
	NoteID string `json:"note_id"`
	Draft  string `json:"draft"`
}

// State is a read-only projection of the controller for a presentation
// layer. Every value is a copy; mutating it has no effect on the controller.
type State struct {
	Notes []model.Note `json:"notes"`
	Draft string       `json:"draft"`
	Edit  *EditSession `json:"edit,omitempty"`
}

// Controller serializes all entry points behind one mutex: commands arrive
// from the session's goroutine, snapshots from the store's delivery
// goroutine, and neither ever runs concurrently with the other. The
// onChange hook fires while the lock is held and must not call back in.
type Controller struct {
	store store.Store

	mu          sync.Mutex
	userID      string
	notes       []model.Note
	edit        *EditSession
	draft       string
	unsubscribe func()
	gen         int // bumped on every teardown; stale deliveries carry the old value

	onChange   func(State)
	onSubError func(error)
}

func New(st store.Store) *Controller {
	return &Controller{store: st}
}

// SetOnChange registers fn to run after every observable state change.
// Must be set before Activate.
func (c *Controller) SetOnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// SetOnSubscribeError registers fn for live-subscription failures. The
// controller does not resubscribe on its own; reconnection policy belongs
// to the caller.
func (c *Controller) SetOnSubscribeError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSubError = fn
}

// Activate opens the live subscription for userID. Calling it again with
// the same user is a no-op; a different user tears the previous
// subscription down first, so at most one is ever open.
func (c *Controller) Activate(userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if userID == "" {
		return ErrNotActive
	}
	if c.userID == userID && c.unsubscribe != nil {
		return nil
	}
	c.teardownLocked()
	c.userID = userID

	gen := c.gen
	unsubscribe, err := c.store.Subscribe(userID,
		func(notes []model.Note) { c.applySnapshot(gen, notes) },
		func(err error) { c.subscriptionFailed(gen, err) },
	)
	if err != nil {
		c.userID = ""
		return err
	}
	c.unsubscribe = unsubscribe
	return nil
}

// Deactivate tears down the subscription and clears all local state. A
// snapshot still in flight when this runs is discarded, not applied.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.notifyLocked()
}

// SetDraft updates the pending new-note input.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID == "" {
		return
	}
	c.draft = text
	c.notifyLocked()
}

// Create persists a new note with the trimmed text. The note list is not
// touched here: the next snapshot is the sole source of the new entry. The
// draft input is cleared only once the store accepts the note.
func (c *Controller) Create(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == "" {
		return ErrNotActive
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyText
	}
	if _, err := c.store.Create(c.userID, trimmed); err != nil {
		return err
	}
	c.draft = ""
	c.notifyLocked()
	return nil
}

// BeginEdit opens an edit session seeded with the note's current text. Any
// session already open is discarded without saving, whichever note it was
// for.
func (c *Controller) BeginEdit(noteID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == "" {
		return ErrNotActive
	}
	note, ok := c.findLocked(noteID)
	if !ok {
		return ErrStaleNote
	}
	c.edit = &EditSession{NoteID: noteID, Draft: note.Text}
	c.notifyLocked()
	return nil
}

// UpdateEditDraft replaces the open session's working text. Without an open
// session it does nothing.
func (c *Controller) UpdateEditDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil {
		return
	}
	c.edit.Draft = text
	c.notifyLocked()
}

// CommitEdit persists the session's trimmed draft. On a validation or store
// failure the session stays open so the user can fix or retry; only a
// successful store update closes it.
func (c *Controller) CommitEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.edit == nil {
		return ErrNoSession
	}
	trimmed := strings.TrimSpace(c.edit.Draft)
	if trimmed == "" {
		return ErrEmptyText
	}
	if err := c.store.Update(c.edit.NoteID, trimmed); err != nil {
		return err
	}
	c.edit = nil
	c.notifyLocked()
	return nil
}

// CancelEdit discards the open session unconditionally.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil {
		return
	}
	c.edit = nil
	c.notifyLocked()
}

// Delete removes the note from the store. When it targets the note being
// edited, the session closes before the delete call resolves, whatever the
// outcome. The note list itself only changes via the next snapshot.
func (c *Controller) Delete(noteID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == "" {
		return ErrNotActive
	}
	if _, ok := c.findLocked(noteID); !ok {
		return ErrStaleNote
	}
	if c.edit != nil && c.edit.NoteID == noteID {
		c.edit = nil
	}
	err := c.store.Delete(noteID)
	c.notifyLocked()
	return err
}

// State returns a copy of the controller's current projection.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) applySnapshot(gen int, notes []model.Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// Delivery from a subscription that was torn down in the meantime.
		return
	}
	c.notes = notes
	c.notifyLocked()
}

func (c *Controller) subscriptionFailed(gen int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	if c.onSubError != nil {
		c.onSubError(err)
	}
}

func (c *Controller) teardownLocked() {
	c.gen++
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.userID = ""
	c.notes = nil
	c.edit = nil
	c.draft = ""
}

func (c *Controller) findLocked(noteID string) (model.Note, bool) {
	for _, n := range c.notes {
		if n.ID == noteID {
			return n, true
		}
	}
	return model.Note{}, false
}

func (c *Controller) stateLocked() State {
	s := State{Draft: c.draft, Notes: make([]model.Note, len(c.notes))}
	copy(s.Notes, c.notes)
	if c.edit != nil {
		edit := *c.edit
		s.Edit = &edit
	}
	return s
}

func (c *Controller) notifyLocked() {
	if c.onChange != nil {
		c.onChange(c.stateLocked())
	}
}
