package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/enockm/productivity-tracker/internal/service"
)

// HabitHandler exposes habit CRUD and daily log management.
type HabitHandler struct {
	habits *service.HabitService
	logger *slog.Logger
}

func NewHabitHandler(habits *service.HabitService, logger *slog.Logger) *HabitHandler {
	return &HabitHandler{habits: habits, logger: logger}
}

// HandleCreate creates a habit.
//
// HTTP: POST /api/habits
func (h *HabitHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in service.CreateHabitInput
	if !decodeJSON(w, r, &in) {
		return
	}

	habit, err := h.habits.Create(r.Context(), uid, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, habit)
}

// HandleList returns all of the user's habits with their logs.
//
// HTTP: GET /api/habits
func (h *HabitHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	habits, err := h.habits.List(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, habits)
}

// HandleGet returns one habit.
//
// HTTP: GET /api/habits/{id}
func (h *HabitHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	habit, err := h.habits.Get(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, habit)
}

// HandleUpdate patches a habit's name or description.
//
// HTTP: PATCH /api/habits/{id}
func (h *HabitHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in service.UpdateHabitInput
	if !decodeJSON(w, r, &in) {
		return
	}

	habit, err := h.habits.Update(r.Context(), uid, r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, habit)
}

// HandleAddLog records the habit as done for today, or for an explicit date.
// A second log on the same day responds 409.
//
// HTTP: POST /api/habits/{id}/logs
// BODY: {} or {"date": "2026-09-01T00:00:00Z"}
func (h *HabitHandler) HandleAddLog(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in struct {
		Date *time.Time `json:"date"`
	}
	// An empty body means "log today", so a decode failure from EOF is fine.
	_ = decodeBodyOptional(r, &in)

	var on time.Time
	if in.Date != nil {
		on = *in.Date
	}

	habit, err := h.habits.AddLog(r.Context(), uid, r.PathValue("id"), on)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, habit)
}

// HandleDeleteLog removes one log entry.
//
// HTTP: DELETE /api/habits/{id}/logs/{logID}
func (h *HabitHandler) HandleDeleteLog(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	habit, err := h.habits.DeleteLog(r.Context(), uid, r.PathValue("id"), r.PathValue("logID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, habit)
}

// HandleDelete removes a habit and its embedded logs.
//
// HTTP: DELETE /api/habits/{id}
func (h *HabitHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.habits.Delete(r.Context(), uid, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
