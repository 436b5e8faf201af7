package note

import (
	"encoding/json"
	"errors"
	"net/http"

	"matrixnotes/internal/note/model"
	"matrixnotes/internal/note/service"
	"matrixnotes/middleware"
	"matrixnotes/pkg/logger"
)

type NoteHandler struct {
	Service *service.NoteService
}

func NewNoteHandler(svc *service.NoteService) *NoteHandler {
	return &NoteHandler{Service: svc}
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.Context().Value(middleware.UserIDKey).(string)

	notes, err := h.Service.ListNotes(userID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list notes for user %s: %v", userID, err)
		http.Error(w, "Failed to list notes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notes)
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.Context().Value(middleware.UserIDKey).(string)

	var req model.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	noteID, err := h.Service.CreateNote(userID, req.Text)
	if err != nil {
		writeServiceError(w, "create note", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(model.CreateNoteResponse{NoteID: noteID})
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	noteID := r.URL.Query().Get("noteId")
	if noteID == "" {
		http.Error(w, "Missing noteId parameter", http.StatusBadRequest)
		return
	}

	userID := r.Context().Value(middleware.UserIDKey).(string)

	var req model.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.UpdateNote(userID, noteID, req.Text); err != nil {
		writeServiceError(w, "update note", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Note updated successfully"))
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	noteID := r.URL.Query().Get("noteId")
	if noteID == "" {
		http.Error(w, "Missing noteId parameter", http.StatusBadRequest)
		return
	}

	userID := r.Context().Value(middleware.UserIDKey).(string)

	if err := h.Service.DeleteNote(userID, noteID); err != nil {
		writeServiceError(w, "delete note", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Note deleted successfully"))
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyText):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		logger.Sugar.Errorf("Handler: Failed to %s: %v", op, err)
		http.Error(w, "Failed to "+op, http.StatusInternalServerError)
	}
}
