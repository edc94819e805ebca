package model

import "time"

// Habit is a recurring behaviour the user wants to build. Logs are embedded
// in the habit — one log per calendar day, always written through the habit.
type Habit struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Logs        []HabitLog `json:"logs"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// HabitLog records that the habit was done on a particular day.
type HabitLog struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
}

// LoggedOn reports whether the habit has a log whose date falls on the same
// calendar day as t (truncated to local midnight in t's location).
func (h *Habit) LoggedOn(t time.Time) bool {
	day := DayOf(t)
	for _, l := range h.Logs {
		if DayOf(l.Date.In(t.Location())).Equal(day) {
			return true
		}
	}
	return false
}

// DayOf truncates a time to midnight in its own location. All "same day"
// comparisons in the app go through this so day boundaries are consistent.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
