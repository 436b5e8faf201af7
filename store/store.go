package store

import "matrixnotes/internal/note/model"

// Note is the persisted record the store deals in.
type Note = model.Note

// Store is the note store adapter: an owner-scoped record store with live
// subscriptions alongside plain mutations. A subscription always receives
// the full current result set, newest-first — never deltas.
type Store interface {
	// Subscribe registers onSnapshot for the owner's notes. The current
	// result set is delivered asynchronously right away, then again after
	// every change. onError receives a subscription failure, after which no
	// further snapshots arrive. The returned function cancels delivery.
	Subscribe(ownerID string, onSnapshot func([]Note), onError func(error)) (func(), error)

	// Create persists a new note and returns its store-assigned id. The
	// creation timestamp is assigned here, not by the caller.
	Create(ownerID, text string) (string, error)

	// Update replaces the text of an existing note.
	Update(id, text string) error

	// Delete removes a note.
	Delete(id string) error
}
