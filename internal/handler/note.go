package handler

import (
	"log/slog"
	"net/http"

	"github.com/enockm/productivity-tracker/internal/service"
)

// NoteHandler exposes note CRUD.
type NoteHandler struct {
	notes  *service.NoteService
	logger *slog.Logger
}

func NewNoteHandler(notes *service.NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, logger: logger}
}

// HandleCreate creates a note.
//
// HTTP: POST /api/notes
func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in service.CreateNoteInput
	if !decodeJSON(w, r, &in) {
		return
	}

	note, err := h.notes.Create(r.Context(), uid, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

// HandleList returns the user's notes, newest first, optionally filtered by
// category.
//
// HTTP: GET /api/notes?category=
func (h *NoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	notes, err := h.notes.List(r.Context(), uid, r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

// HandleGet returns one note.
//
// HTTP: GET /api/notes/{id}
func (h *NoteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	note, err := h.notes.Get(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// HandleUpdate patches a note.
//
// HTTP: PATCH /api/notes/{id}
func (h *NoteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in service.UpdateNoteInput
	if !decodeJSON(w, r, &in) {
		return
	}

	note, err := h.notes.Update(r.Context(), uid, r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// HandleDelete removes a note.
//
// HTTP: DELETE /api/notes/{id}
func (h *NoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.notes.Delete(r.Context(), uid, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
