package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/enockm/productivity-tracker/internal/auth"
	"github.com/enockm/productivity-tracker/internal/repository"
	"github.com/enockm/productivity-tracker/internal/service"
)

// GoalHandler exposes goal CRUD, progress updates, milestones, achievements,
// and the goal-centric alert and stats views. Every route is scoped to the
// authenticated user; a goal the caller does not own reads as not found.
type GoalHandler struct {
	goals  *service.GoalService
	logger *slog.Logger
}

func NewGoalHandler(goals *service.GoalService, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{goals: goals, logger: logger}
}

// userID pulls the authenticated user from the request context. Handlers in
// this package only run behind RequireAuth, so a miss is a programming error
// surfaced as 401 rather than a panic.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return "", false
	}
	return id, true
}

// HandleCreate creates a goal.
//
// HTTP: POST /api/goals
func (h *GoalHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in service.CreateGoalInput
	if !decodeJSON(w, r, &in) {
		return
	}

	goal, err := h.goals.Create(r.Context(), uid, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

// HandleList returns the user's goals, filtered and sorted per query params.
//
// HTTP: GET /api/goals?status=&priority=&category=&sort=&limit=
func (h *GoalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := repository.GoalFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "limit must be a positive integer",
			})
			return
		}
		filter.Limit = n
	}

	goals, err := h.goals.List(r.Context(), uid, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

// HandleAlerts returns the goal deadline digest for the dashboard.
//
// HTTP: GET /api/goals/notifications
func (h *GoalHandler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	alerts, err := h.goals.Alerts(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, alerts)
}

// HandleStats returns aggregate goal statistics.
//
// HTTP: GET /api/goals/stats
func (h *GoalHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	stats, err := h.goals.Stats(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// HandleGet returns one goal with its computed fields (daysUntilDue,
// isOverdue, isDueSoon, milestoneProgress).
//
// HTTP: GET /api/goals/{id}
func (h *GoalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	goal, err := h.goals.Get(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, goal.Detail(time.Now()))
}

// HandleUpdate applies a partial update; the lifecycle rules run on every
// write, so e.g. patching progress to 100 also flips status to completed.
//
// HTTP: PATCH /api/goals/{id}
func (h *GoalHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in service.UpdateGoalInput
	if !decodeJSON(w, r, &in) {
		return
	}

	goal, err := h.goals.Update(r.Context(), uid, r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// HandleUpdateProgress is the dedicated progress endpoint.
//
// HTTP: PATCH /api/goals/{id}/progress
// BODY: {"progress": 55, "note": "optional"}
func (h *GoalHandler) HandleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in struct {
		Progress int    `json:"progress"`
		Note     string `json:"note"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	goal, err := h.goals.UpdateProgress(r.Context(), uid, r.PathValue("id"), in.Progress, in.Note)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// HandleDelete hard-deletes a goal; milestones and achievements are embedded
// so nothing else needs cascading.
//
// HTTP: DELETE /api/goals/{id}
func (h *GoalHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.goals.Delete(r.Context(), uid, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAddMilestone appends a milestone to the goal.
//
// HTTP: POST /api/goals/{id}/milestones
func (h *GoalHandler) HandleAddMilestone(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in service.MilestoneInput
	if !decodeJSON(w, r, &in) {
		return
	}

	milestone, err := h.goals.AddMilestone(r.Context(), uid, r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, milestone)
}

// HandleUpdateMilestone patches a milestone; completing one stamps its
// CompletedAt and earns a milestone achievement.
//
// HTTP: PATCH /api/goals/{id}/milestones/{milestoneID}
func (h *GoalHandler) HandleUpdateMilestone(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in service.MilestoneInput
	if !decodeJSON(w, r, &in) {
		return
	}

	milestone, err := h.goals.UpdateMilestone(r.Context(), uid, r.PathValue("id"), r.PathValue("milestoneID"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, milestone)
}

// HandleDeleteMilestone removes a milestone from the goal.
//
// HTTP: DELETE /api/goals/{id}/milestones/{milestoneID}
func (h *GoalHandler) HandleDeleteMilestone(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.goals.DeleteMilestone(r.Context(), uid, r.PathValue("id"), r.PathValue("milestoneID")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAchievements lists a goal's earned achievements.
//
// HTTP: GET /api/goals/{id}/achievements
func (h *GoalHandler) HandleAchievements(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	achievements, err := h.goals.Achievements(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, achievements)
}
