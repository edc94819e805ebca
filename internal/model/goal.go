// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"math"
	"time"
)

// Goal priority levels.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Goal lifecycle statuses.
//
// StatusCompleted and StatusInProgress are DERIVED statuses — the lifecycle
// engine recomputes them from progress on every write. StatusPaused and
// StatusCancelled are manual statuses the user sets explicitly; the engine
// leaves them alone unless progress forces a transition.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusPaused     = "paused"
	StatusCancelled  = "cancelled"
)

// Achievement types. Achievements are immutable records of threshold crossings;
// they are only ever appended, never removed or deduplicated.
const (
	AchievementMilestoneCompleted = "milestone_completed"
	AchievementProgressStreak     = "progress_streak"
	AchievementGoalCompleted      = "goal_completed"
)

// Goal is the aggregate root for a user objective. Milestones, progress history
// and achievements are embedded collections — they have no life of their own
// and are always read and written through the owning goal, exactly like
// sub-documents in a document store.
type Goal struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`

	DueDate   time.Time `json:"dueDate"`
	StartDate time.Time `json:"startDate"`

	// Progress is a percentage in [0,100]. The lifecycle engine guarantees the
	// range on every accepted write.
	Progress int `json:"progress"`

	Milestones []Milestone `json:"milestones"`
	Tags       []string    `json:"tags"`

	Notifications NotificationConfig `json:"notifications"`

	// ProgressHistory holds the most recent 50 snapshots, oldest first.
	// The lifecycle engine appends one entry per progress change and evicts
	// the oldest beyond the cap.
	ProgressHistory    []ProgressEntry `json:"progressHistory"`
	LastProgressUpdate time.Time       `json:"lastProgressUpdate"`

	Achievements []Achievement `json:"achievements"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Milestone is a named sub-target within a goal. It is created, updated and
// deleted only through the owning goal.
type Milestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NotificationConfig controls reminder behaviour for a single goal.
type NotificationConfig struct {
	Enabled            bool `json:"enabled"`
	ReminderDays       int  `json:"reminderDays"`       // days before due date to start reminding
	MilestoneReminders bool `json:"milestoneReminders"`
}

// DefaultNotificationConfig mirrors the defaults applied when a goal is
// created without explicit notification settings.
func DefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		Enabled:            true,
		ReminderDays:       3,
		MilestoneReminders: true,
	}
}

// ProgressEntry is one snapshot in a goal's bounded progress history.
type ProgressEntry struct {
	Date     time.Time `json:"date"`
	Progress int       `json:"progress"`
	Note     string    `json:"note,omitempty"`
}

// Achievement records a threshold crossing, surfaced to the user.
type Achievement struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// DaysUntilDue returns the number of whole days (rounded up) between now and
// the due date. Negative when the due date has passed.
//
// WHY CEIL?
// A goal due 1 hour from now is "due in 1 day", not "due in 0 days" — partial
// days always round away from zero in the overdue direction. This matches how
// people talk about deadlines.
func (g *Goal) DaysUntilDue(now time.Time) int {
	return ceilDays(g.DueDate.Sub(now))
}

// IsOverdue reports whether the due date has passed for a goal that is not
// completed. Once a goal is completed it is never overdue, regardless of date.
func (g *Goal) IsOverdue(now time.Time) bool {
	return g.DaysUntilDue(now) < 0 && g.Status != StatusCompleted
}

// IsDueSoon reports whether the goal is due within the next 7 days (exclusive
// of overdue) and not completed.
func (g *Goal) IsDueSoon(now time.Time) bool {
	days := g.DaysUntilDue(now)
	return days > 0 && days <= 7 && g.Status != StatusCompleted
}

// NeedsReminder reports whether the goal qualifies for a reminder email: the
// goal has notifications enabled, is not completed, and its due date falls
// within the configured reminder window.
func (g *Goal) NeedsReminder(now time.Time) bool {
	if !g.Notifications.Enabled || g.Status == StatusCompleted {
		return false
	}
	days := g.DaysUntilDue(now)
	return days > 0 && days <= g.Notifications.ReminderDays
}

// MilestoneProgress returns the percentage of completed milestones, rounded to
// the nearest integer. A goal with no milestones reports 0.
func (g *Goal) MilestoneProgress() int {
	if len(g.Milestones) == 0 {
		return 0
	}
	completed := 0
	for _, m := range g.Milestones {
		if m.Completed {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(g.Milestones)) * 100))
}

// MilestoneByID returns a pointer into the goal's milestone slice, or nil if
// no milestone with that ID exists. The pointer allows in-place mutation —
// milestone writes always go through the owning goal.
func (g *Goal) MilestoneByID(id string) *Milestone {
	for i := range g.Milestones {
		if g.Milestones[i].ID == id {
			return &g.Milestones[i]
		}
	}
	return nil
}

// GoalDetail is the API representation of a goal with its computed fields
// attached. The computed fields are derived on demand and never stored.
type GoalDetail struct {
	Goal
	DaysUntilDue      int  `json:"daysUntilDue"`
	IsOverdue         bool `json:"isOverdue"`
	IsDueSoon         bool `json:"isDueSoon"`
	MilestoneProgress int  `json:"milestoneProgress"`
}

// Detail builds the computed view of the goal as of the given time.
func (g *Goal) Detail(now time.Time) GoalDetail {
	return GoalDetail{
		Goal:              *g,
		DaysUntilDue:      g.DaysUntilDue(now),
		IsOverdue:         g.IsOverdue(now),
		IsDueSoon:         g.IsDueSoon(now),
		MilestoneProgress: g.MilestoneProgress(),
	}
}

// ValidPriority reports whether p is one of the accepted priority values.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ValidStatus reports whether s is one of the accepted status values.
func ValidStatus(s string) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusPaused, StatusCancelled:
		return true
	}
	return false
}
