package router

import (
	"database/sql"
	"net/http"

	noteHandler "matrixnotes/internal/note"
	"matrixnotes/internal/note/repository"
	"matrixnotes/internal/note/service"
	"matrixnotes/middleware"
	"matrixnotes/socket"
	"matrixnotes/store"
)

func Setup(db *sql.DB) http.Handler {
	mux := http.NewServeMux()

	noteRepo := repository.NewNoteRepository(db)
	noteStore := store.NewSQLStore(noteRepo)

	// Live session: one controller per connection.
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(middleware.UserIDKey).(string)
		socket.ServeWs(noteStore, w, r, userID)
	})
	mux.Handle("/ws", middleware.AuthMiddleware(wsHandler))

	// REST API
	noteService := service.NewNoteService(noteRepo, noteStore)
	handler := noteHandler.NewNoteHandler(noteService)
	auth := middleware.AuthMiddleware

	mux.Handle("/api/notes", auth(http.HandlerFunc(handler.ListNotes)))
	mux.Handle("/api/notes/create", auth(http.HandlerFunc(handler.CreateNote)))
	mux.Handle("/api/notes/update", auth(http.HandlerFunc(handler.UpdateNote)))
	mux.Handle("/api/notes/delete", auth(http.HandlerFunc(handler.DeleteNote)))

	return middleware.CORSMiddleware(mux)
}
