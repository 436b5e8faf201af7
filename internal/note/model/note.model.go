package model

import "time"

// Note is a persisted record owned by a single user. The store assigns the
// ID and CreatedAt on creation; OwnerID never changes afterwards. CreatedAt
// is the sole sort key: note lists are always newest-first.
type Note struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateNoteRequest struct {
	Text string `json:"text"`
}

type CreateNoteResponse struct {
	NoteID string `json:"note_id"`
}

type UpdateNoteRequest struct {
	Text string `json:"text"`
}
