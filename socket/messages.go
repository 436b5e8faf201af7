package socket

import (
	"encoding/json"
	"errors"

	"matrixnotes/notesync"
)

const (
	// Client commands.
	CreateType     = "CREATE"      // Persist a new note
	SetDraftType   = "SET_DRAFT"   // Update the pending new-note input
	BeginEditType  = "BEGIN_EDIT"  // Open an edit session for a note
	EditDraftType  = "EDIT_DRAFT"  // Update the edit session's working text
	CommitEditType = "COMMIT_EDIT" // Persist the edit session's draft
	CancelEditType = "CANCEL_EDIT" // Discard the edit session
	DeleteType     = "DELETE"      // Remove a note (client confirms first)

	// Server events.
	StateType = "STATE" // Full controller state after every change
	ErrorType = "ERROR" // A command or the subscription failed
)

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type TextPayload struct {
	Text string `json:"text"`
}

type NoteRefPayload struct {
	NoteID string `json:"note_id"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// errorPayload maps controller errors onto wire codes. Anything outside
// the local taxonomy is a store or subscription failure and worth retrying.
func errorPayload(err error) ErrorPayload {
	p := ErrorPayload{Message: err.Error()}
	switch {
	case errors.Is(err, notesync.ErrEmptyText):
		p.Code = "EMPTY_TEXT"
	case errors.Is(err, notesync.ErrStaleNote):
		p.Code = "STALE_NOTE"
	case errors.Is(err, notesync.ErrNoSession):
		p.Code = "NO_EDIT_SESSION"
	case errors.Is(err, notesync.ErrNotActive):
		p.Code = "NOT_ACTIVE"
	default:
		p.Code = "STORE"
		p.Retryable = true
	}
	return p
}
