package model

import "time"

// Task is a single to-do item, optionally linked to a goal.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	GoalID      string     `json:"goalId,omitempty"` // optional link to a goal
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// DaysUntilDue returns whole days (rounded up) until the task's due date.
// The second return value is false when the task has no due date.
// Partial days round up, mirroring Goal.DaysUntilDue, so tasks and goals
// agree on what "due in N days" means.
func (t *Task) DaysUntilDue(now time.Time) (int, bool) {
	if t.DueDate == nil {
		return 0, false
	}
	return ceilDays(t.DueDate.Sub(now)), true
}

// IsOverdue reports whether the task has a due date strictly in the past and
// is not completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.Completed
}

// ceilDays converts a duration to whole days, rounding toward positive
// infinity. Integer division truncates toward zero, which already equals
// ceiling for negative durations; positive remainders bump up by one.
func ceilDays(d time.Duration) int {
	const day = 24 * time.Hour
	n := d / day
	if d%day > 0 {
		n++
	}
	return int(n)
}
