package repository

import (
	"database/sql"
	"time"

	"matrixnotes/internal/note/model"
	"matrixnotes/pkg/logger"
)

type NoteRepository struct {
	DB *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

// EnsureSchema creates the notes table if it does not exist yet. Needed for
// the embedded sqlite driver; harmless against Postgres.
// created_at is stored as Unix nanoseconds so ordering works identically on
// both drivers.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_notes_owner_created ON notes (owner_id, created_at)`)
	return err
}

func (r *NoteRepository) Insert(id, ownerID, text string, createdAt time.Time) error {
	_, err := r.DB.Exec(`INSERT INTO notes (id, owner_id, text, created_at) VALUES ($1, $2, $3, $4)`,
		id, ownerID, text, createdAt.UnixNano())
	if err != nil {
		logger.Sugar.Errorf("Failed to insert note %s: %v", id, err)
	}
	return err
}

// ListByOwner returns the owner's notes newest-first. The id tie-break only
// matters for notes created within the same nanosecond; it keeps the order
// stable either way.
func (r *NoteRepository) ListByOwner(ownerID string) ([]model.Note, error) {
	rows, err := r.DB.Query(`SELECT id, owner_id, text, created_at FROM notes
		WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes for user %s: %v", ownerID, err)
		return nil, err
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		var n model.Note
		var createdAt int64
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Text, &createdAt); err != nil {
			return nil, err
		}
		n.CreatedAt = time.Unix(0, createdAt)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *NoteRepository) UpdateText(id, text string) (int64, error) {
	result, err := r.DB.Exec(`UPDATE notes SET text = $1 WHERE id = $2`, text, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to update note %s: %v", id, err)
		return 0, err
	}
	return result.RowsAffected()
}

func (r *NoteRepository) Delete(id string) error {
	_, err := r.DB.Exec(`DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete note %s: %v", id, err)
	}
	return err
}

func (r *NoteRepository) GetOwnerID(id string) (string, error) {
	var ownerID string
	err := r.DB.QueryRow(`SELECT owner_id FROM notes WHERE id = $1`, id).Scan(&ownerID)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get owner for note %s: %v", id, err)
	}
	return ownerID, err
}
