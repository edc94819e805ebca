// Package repository defines the storage interfaces the service layer
// programs against. Services receive these interfaces, never the concrete
// sqlite types — tests inject in-memory mocks, and the backend could be
// swapped without touching business logic.
//
// OWNERSHIP SCOPING:
// Every method that touches a non-User entity takes the owning userID and
// scopes the query by it. A record owned by someone else is reported as
// not-found — the repository is where cross-user invisibility is enforced,
// so no caller can forget it.
package repository

import (
	"context"

	"github.com/enockm/productivity-tracker/internal/model"
)

// GoalFilter narrows and orders goal listings.
type GoalFilter struct {
	Status   string   // exact status match
	Statuses []string // alternative: any of these statuses (used by aggregations)
	Priority string
	Category string // case-insensitive match
	Sort     string // "createdAt" | "-createdAt" | "dueDate" | "-dueDate" | "priority" | "progress"
	Limit    int
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	Completed *bool  // nil = both
	GoalID    string // only tasks linked to this goal
}

// UserRepository stores accounts. Lookup by email and by Google subject ID
// support the two sign-in paths; ListUsers feeds the reminder scheduler.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context) ([]model.User, error)
}

type GoalRepository interface {
	CreateGoal(ctx context.Context, goal *model.Goal) error
	GetGoal(ctx context.Context, userID, id string) (*model.Goal, error)
	ListGoals(ctx context.Context, userID string, filter GoalFilter) ([]model.Goal, error)
	UpdateGoal(ctx context.Context, goal *model.Goal) error
	DeleteGoal(ctx context.Context, userID, id string) error
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, userID, id string) (*model.Task, error)
	ListTasks(ctx context.Context, userID string, filter TaskFilter) ([]model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, userID, id string) error
}

type HabitRepository interface {
	CreateHabit(ctx context.Context, habit *model.Habit) error
	GetHabit(ctx context.Context, userID, id string) (*model.Habit, error)
	ListHabits(ctx context.Context, userID string) ([]model.Habit, error)
	UpdateHabit(ctx context.Context, habit *model.Habit) error
	DeleteHabit(ctx context.Context, userID, id string) error
}

type NoteRepository interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, userID, id string) (*model.Note, error)
	ListNotes(ctx context.Context, userID, category string) ([]model.Note, error)
	UpdateNote(ctx context.Context, note *model.Note) error
	DeleteNote(ctx context.Context, userID, id string) error
}

// Store bundles all entity repositories. The sqlite.DB type implements it;
// server wiring and the reminder scheduler pass it around as one value.
type Store interface {
	UserRepository
	GoalRepository
	TaskRepository
	HabitRepository
	NoteRepository
}
