package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/enockm/productivity-tracker/internal/repository"
	"github.com/enockm/productivity-tracker/internal/service"
)

// TaskHandler exposes task CRUD plus a one-call completion toggle.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// HandleCreate creates a task.
//
// HTTP: POST /api/tasks
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in service.CreateTaskInput
	if !decodeJSON(w, r, &in) {
		return
	}

	task, err := h.tasks.Create(r.Context(), uid, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// HandleList returns the user's tasks.
//
// HTTP: GET /api/tasks?completed=&goalId=
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := repository.TaskFilter{GoalID: q.Get("goalId")}
	if raw := q.Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "completed must be true or false",
			})
			return
		}
		filter.Completed = &completed
	}

	tasks, err := h.tasks.List(r.Context(), uid, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// HandleGet returns one task.
//
// HTTP: GET /api/tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleUpdate applies a partial update. Setting completed stamps or clears
// completedAt in the service layer.
//
// HTTP: PATCH /api/tasks/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in service.UpdateTaskInput
	if !decodeJSON(w, r, &in) {
		return
	}

	task, err := h.tasks.Update(r.Context(), uid, r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleToggle flips completion without the caller needing the current state.
//
// HTTP: POST /api/tasks/{id}/toggle
func (h *TaskHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Toggle(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleDelete removes a task.
//
// HTTP: DELETE /api/tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), uid, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
