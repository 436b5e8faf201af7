package service

import (
	"database/sql"
	"errors"
	"strings"

	"matrixnotes/internal/note/model"
	"matrixnotes/internal/note/repository"
	"matrixnotes/store"
)

var (
	ErrEmptyText = errors.New("note text cannot be empty")
	ErrNotFound  = errors.New("note not found")
	ErrForbidden = errors.New("note belongs to another user")
)

// NoteService backs the REST surface. Mutations go through the store, not
// the repository, so live subscribers observe REST-driven changes too.
type NoteService struct {
	Repo  *repository.NoteRepository
	Store store.Store
}

func NewNoteService(repo *repository.NoteRepository, st store.Store) *NoteService {
	return &NoteService{Repo: repo, Store: st}
}

func (s *NoteService) ListNotes(userID string) ([]model.Note, error) {
	return s.Repo.ListByOwner(userID)
}

func (s *NoteService) CreateNote(userID, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyText
	}
	return s.Store.Create(userID, trimmed)
}

func (s *NoteService) UpdateNote(userID, noteID, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyText
	}
	if err := s.checkOwner(userID, noteID); err != nil {
		return err
	}
	return s.Store.Update(noteID, trimmed)
}

func (s *NoteService) DeleteNote(userID, noteID string) error {
	if err := s.checkOwner(userID, noteID); err != nil {
		return err
	}
	return s.Store.Delete(noteID)
}

func (s *NoteService) checkOwner(userID, noteID string) error {
	ownerID, err := s.Repo.GetOwnerID(noteID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != userID {
		return ErrForbidden
	}
	return nil
}
