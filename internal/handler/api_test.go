package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/enockm/productivity-tracker/internal/auth"
	"github.com/enockm/productivity-tracker/internal/handler"
	"github.com/enockm/productivity-tracker/internal/model"
	"github.com/enockm/productivity-tracker/internal/repository/sqlite"
	"github.com/enockm/productivity-tracker/internal/service"
)

// testAPI wires real services over an in-memory database behind the same
// routes the server mounts — handler tests go through routing, auth
// middleware, and JSON codecs exactly like a live request.
type testAPI struct {
	router *chi.Mux
	tokens *auth.TokenService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)

	authSvc := service.NewAuthService(db, tokens, passwords, nil, logger)
	goalSvc := service.NewGoalService(db, logger)
	taskSvc := service.NewTaskService(db, logger)
	habitSvc := service.NewHabitService(db, logger)
	noteSvc := service.NewNoteService(db, logger)

	authHandler := handler.NewAuthHandler(authSvc, t.TempDir(), logger)
	goalHandler := handler.NewGoalHandler(goalSvc, logger)
	taskHandler := handler.NewTaskHandler(taskSvc, logger)
	habitHandler := handler.NewHabitHandler(habitSvc, logger)
	noteHandler := handler.NewNoteHandler(noteSvc, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(tokens))
				r.Get("/me", authHandler.HandleMe)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Route("/goals", func(r chi.Router) {
				r.Post("/", goalHandler.HandleCreate)
				r.Get("/{id}", goalHandler.HandleGet)
				r.Patch("/{id}/progress", goalHandler.HandleUpdateProgress)
			})
			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", taskHandler.HandleCreate)
				r.Get("/", taskHandler.HandleList)
				r.Get("/{id}", taskHandler.HandleGet)
				r.Post("/{id}/toggle", taskHandler.HandleToggle)
				r.Delete("/{id}", taskHandler.HandleDelete)
			})
			r.Route("/habits", func(r chi.Router) {
				r.Post("/", habitHandler.HandleCreate)
				r.Post("/{id}/logs", habitHandler.HandleAddLog)
			})
			r.Route("/notes", func(r chi.Router) {
				r.Post("/", noteHandler.HandleCreate)
				r.Get("/", noteHandler.HandleList)
			})
		})
	})

	return &testAPI{router: r, tokens: tokens}
}

// do sends a JSON request, optionally authenticated, and returns the recorder.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// register creates an account through the API and returns its bearer token.
func (a *testAPI) register(t *testing.T, email string) string {
	t.Helper()

	rr := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var res service.AuthResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

// =========================================================================
// AUTH FLOW
// =========================================================================

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	t.Run("register issues a working token", func(t *testing.T) {
		token := api.register(t, "flow@example.com")

		rr := api.do(t, http.MethodGet, "/api/auth/me", token, nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var me model.User
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&me))
		assert.Equal(t, "flow@example.com", me.Email)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		api.register(t, "dup@example.com")

		rr := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email":    "dup@example.com",
			"password": "hunter2hunter2",
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		api.register(t, "wrongpw@example.com")

		rr := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "wrongpw@example.com",
			"password": "not-the-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("short password fails validation", func(t *testing.T) {
		rr := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email":    "short@example.com",
			"password": "2short",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("protected route without token", func(t *testing.T) {
		rr := api.do(t, http.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

// =========================================================================
// TASKS
// =========================================================================

func TestTaskEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "tasks@example.com")

	t.Run("create defaults priority", func(t *testing.T) {
		rr := api.do(t, http.MethodPost, "/api/tasks/", token, map[string]string{
			"title": "water plants",
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var task model.Task
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&task))
		assert.Equal(t, model.PriorityMedium, task.Priority)
		assert.False(t, task.Completed)
	})

	t.Run("missing title is a validation error", func(t *testing.T) {
		rr := api.do(t, http.MethodPost, "/api/tasks/", token, map[string]string{
			"description": "no title here",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var res handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "validation_error", res.Error)
		require.Len(t, res.Fields, 1)
		assert.Equal(t, "title", res.Fields[0].Field)
	})

	t.Run("toggle stamps and clears completedAt", func(t *testing.T) {
		rr := api.do(t, http.MethodPost, "/api/tasks/", token, map[string]string{"title": "toggle me"})
		require.Equal(t, http.StatusCreated, rr.Code)
		var created model.Task
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))

		// Decode each response into its own struct: completedAt is omitted
		// from the JSON when nil, so reusing one would keep the old value.
		rr = api.do(t, http.MethodPost, fmt.Sprintf("/api/tasks/%s/toggle", created.ID), token, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var done model.Task
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&done))
		assert.True(t, done.Completed)
		assert.NotNil(t, done.CompletedAt)

		rr = api.do(t, http.MethodPost, fmt.Sprintf("/api/tasks/%s/toggle", created.ID), token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var reopened model.Task
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&reopened))
		assert.False(t, reopened.Completed)
		assert.Nil(t, reopened.CompletedAt)
	})

	t.Run("another user's task reads as not found", func(t *testing.T) {
		rr := api.do(t, http.MethodPost, "/api/tasks/", token, map[string]string{"title": "private"})
		require.Equal(t, http.StatusCreated, rr.Code)
		var task model.Task
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&task))

		intruder := api.register(t, "intruder@example.com")
		rr = api.do(t, http.MethodGet, "/api/tasks/"+task.ID, intruder, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

// =========================================================================
// GOALS
// =========================================================================

func TestGoalEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "goals@example.com")

	rr := api.do(t, http.MethodPost, "/api/goals/", token, map[string]any{
		"title":   "ship the rewrite",
		"dueDate": "2026-12-31T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var goal model.Goal
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&goal))
	assert.Equal(t, model.StatusNotStarted, goal.Status)

	t.Run("progress update drives the lifecycle", func(t *testing.T) {
		rr := api.do(t, http.MethodPatch, fmt.Sprintf("/api/goals/%s/progress", goal.ID), token, map[string]any{
			"progress": 60,
			"note":     "over the hump",
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var updated model.Goal
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
		assert.Equal(t, model.StatusInProgress, updated.Status)
		require.NotEmpty(t, updated.ProgressHistory)
		assert.Equal(t, "over the hump", updated.ProgressHistory[len(updated.ProgressHistory)-1].Note)
	})

	t.Run("out-of-range progress is rejected", func(t *testing.T) {
		rr := api.do(t, http.MethodPatch, fmt.Sprintf("/api/goals/%s/progress", goal.ID), token, map[string]any{
			"progress": 150,
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

// =========================================================================
// HABITS
// =========================================================================

func TestHabitEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "habits@example.com")

	rr := api.do(t, http.MethodPost, "/api/habits/", token, map[string]string{"name": "journal"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var habit model.Habit
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&habit))

	t.Run("logging twice on one day conflicts", func(t *testing.T) {
		rr := api.do(t, http.MethodPost, fmt.Sprintf("/api/habits/%s/logs", habit.ID), token, nil)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		rr = api.do(t, http.MethodPost, fmt.Sprintf("/api/habits/%s/logs", habit.ID), token, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}
