package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/enockm/productivity-tracker/internal/apperror"
	"github.com/enockm/productivity-tracker/internal/model"
	"github.com/enockm/productivity-tracker/internal/repository"
)

func createTestGoal(t *testing.T, db *DB, userID, title string) *model.Goal {
	t.Helper()
	goal := &model.Goal{
		UserID:        userID,
		Title:         title,
		Category:      "Personal",
		Priority:      model.PriorityMedium,
		Status:        model.StatusNotStarted,
		DueDate:       time.Now().AddDate(0, 1, 0),
		StartDate:     time.Now(),
		Notifications: model.DefaultNotificationConfig(),
	}
	if err := db.CreateGoal(context.Background(), goal); err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// =========================================================================
// EMBEDDED DOCUMENT ROUND-TRIP
// =========================================================================

// The goal row is the aggregate: milestones, tags, history and achievements
// live in JSON columns and must come back exactly as written.
func TestGoal_EmbeddedCollectionsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "goals@example.com")

	target := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	goal := &model.Goal{
		UserID:    user.ID,
		Title:     "Run a marathon",
		Category:  "Health",
		Priority:  model.PriorityHigh,
		Status:    model.StatusInProgress,
		DueDate:   time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
		StartDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		Progress:  40,
		Milestones: []model.Milestone{
			{ID: "m1", Title: "Run 10k", Completed: true},
			{ID: "m2", Title: "Run a half", TargetDate: &target},
		},
		Tags:          []string{"running", "health"},
		Notifications: model.NotificationConfig{Enabled: true, ReminderDays: 7},
		ProgressHistory: []model.ProgressEntry{
			{Date: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), Progress: 20, Note: "first month"},
			{Date: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), Progress: 40},
		},
		Achievements: []model.Achievement{
			{Type: model.AchievementMilestoneCompleted, Title: "Milestone completed: Run 10k"},
		},
	}

	if err := db.CreateGoal(context.Background(), goal); err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}

	got, err := db.GetGoal(context.Background(), user.ID, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal() error = %v", err)
	}

	if len(got.Milestones) != 2 {
		t.Fatalf("got %d milestones, want 2", len(got.Milestones))
	}
	if !got.Milestones[0].Completed || got.Milestones[0].Title != "Run 10k" {
		t.Errorf("first milestone = %+v", got.Milestones[0])
	}
	if got.Milestones[1].TargetDate == nil || !got.Milestones[1].TargetDate.Equal(target) {
		t.Errorf("second milestone target date = %v, want %v", got.Milestones[1].TargetDate, target)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "running" {
		t.Errorf("tags = %v", got.Tags)
	}
	if got.Notifications.ReminderDays != 7 {
		t.Errorf("reminder days = %d, want 7", got.Notifications.ReminderDays)
	}
	if len(got.ProgressHistory) != 2 || got.ProgressHistory[0].Note != "first month" {
		t.Errorf("progress history = %+v", got.ProgressHistory)
	}
	if len(got.Achievements) != 1 || got.Achievements[0].Type != model.AchievementMilestoneCompleted {
		t.Errorf("achievements = %+v", got.Achievements)
	}
}

func TestGoal_NilCollectionsComeBackEmpty(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "bare@example.com")

	goal := createTestGoal(t, db, user.ID, "bare goal")

	got, err := db.GetGoal(context.Background(), user.ID, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal() error = %v", err)
	}
	if got.Milestones == nil {
		t.Error("milestones should decode to an empty slice, not nil")
	}
	if got.Tags == nil {
		t.Error("tags should decode to an empty slice, not nil")
	}
}

// =========================================================================
// OWNERSHIP SCOPING
// =========================================================================

// Every read and write is scoped by user_id; another user's goal behaves
// exactly like a goal that does not exist.
func TestGoal_OwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	goal := createTestGoal(t, db, owner.ID, "private goal")

	if _, err := db.GetGoal(context.Background(), other.ID, goal.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetGoal() as other user error = %v, want ErrNotFound", err)
	}

	stolen := *goal
	stolen.UserID = other.ID
	stolen.Title = "hijacked"
	if err := db.UpdateGoal(context.Background(), &stolen); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateGoal() as other user error = %v, want ErrNotFound", err)
	}

	if err := db.DeleteGoal(context.Background(), other.ID, goal.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteGoal() as other user error = %v, want ErrNotFound", err)
	}

	// The owner's copy is untouched by all of the above.
	got, err := db.GetGoal(context.Background(), owner.ID, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal() as owner error = %v", err)
	}
	if got.Title != "private goal" {
		t.Errorf("title = %s, want the original", got.Title)
	}
}

// =========================================================================
// FILTERS AND SORTING
// =========================================================================

func TestListGoals_Filters(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "filters@example.com")

	mk := func(title, status, priority, category string) {
		goal := createTestGoal(t, db, user.ID, title)
		goal.Status = status
		goal.Priority = priority
		goal.Category = category
		if err := db.UpdateGoal(context.Background(), goal); err != nil {
			t.Fatalf("UpdateGoal() error = %v", err)
		}
	}
	mk("active high", model.StatusInProgress, model.PriorityHigh, "Work")
	mk("active low", model.StatusInProgress, model.PriorityLow, "Personal")
	mk("finished", model.StatusCompleted, model.PriorityHigh, "Work")
	mk("paused", model.StatusPaused, model.PriorityMedium, "Health")

	ctx := context.Background()

	byStatus, err := db.ListGoals(ctx, user.ID, repository.GoalFilter{Status: model.StatusCompleted})
	if err != nil {
		t.Fatalf("ListGoals(status) error = %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].Title != "finished" {
		t.Errorf("status filter returned %+v", titlesOf(byStatus))
	}

	byStatuses, err := db.ListGoals(ctx, user.ID, repository.GoalFilter{
		Statuses: []string{model.StatusInProgress, model.StatusPaused},
	})
	if err != nil {
		t.Fatalf("ListGoals(statuses) error = %v", err)
	}
	if len(byStatuses) != 3 {
		t.Errorf("statuses filter returned %d goals, want 3: %v", len(byStatuses), titlesOf(byStatuses))
	}

	byPriority, err := db.ListGoals(ctx, user.ID, repository.GoalFilter{Priority: model.PriorityHigh})
	if err != nil {
		t.Fatalf("ListGoals(priority) error = %v", err)
	}
	if len(byPriority) != 2 {
		t.Errorf("priority filter returned %d goals, want 2", len(byPriority))
	}

	// Category matching is case-insensitive.
	byCategory, err := db.ListGoals(ctx, user.ID, repository.GoalFilter{Category: "work"})
	if err != nil {
		t.Fatalf("ListGoals(category) error = %v", err)
	}
	if len(byCategory) != 2 {
		t.Errorf("category filter returned %d goals, want 2", len(byCategory))
	}
}

func TestListGoals_SortByDueDate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "sort@example.com")

	later := createTestGoal(t, db, user.ID, "later")
	later.DueDate = time.Now().AddDate(0, 2, 0)
	if err := db.UpdateGoal(context.Background(), later); err != nil {
		t.Fatalf("UpdateGoal() error = %v", err)
	}
	sooner := createTestGoal(t, db, user.ID, "sooner")
	sooner.DueDate = time.Now().AddDate(0, 0, 3)
	if err := db.UpdateGoal(context.Background(), sooner); err != nil {
		t.Fatalf("UpdateGoal() error = %v", err)
	}

	goals, err := db.ListGoals(context.Background(), user.ID, repository.GoalFilter{Sort: "dueDate"})
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	if len(goals) != 2 || goals[0].Title != "sooner" {
		t.Errorf("dueDate sort order = %v, want sooner first", titlesOf(goals))
	}
}

func TestListGoals_ScopedToUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	createTestGoal(t, db, alice.ID, "alice's")
	createTestGoal(t, db, bob.ID, "bob's")

	goals, err := db.ListGoals(context.Background(), alice.ID, repository.GoalFilter{})
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	if len(goals) != 1 || goals[0].Title != "alice's" {
		t.Errorf("ListGoals() returned %v, want only alice's", titlesOf(goals))
	}
}

func titlesOf(goals []model.Goal) []string {
	titles := make([]string, len(goals))
	for i, g := range goals {
		titles[i] = g.Title
	}
	return titles
}
