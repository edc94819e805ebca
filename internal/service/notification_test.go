package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/enockm/productivity-tracker/internal/apperror"
	"github.com/enockm/productivity-tracker/internal/model"
	"github.com/enockm/productivity-tracker/internal/repository"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================

type mockTaskRepo struct {
	tasks  map[string]*model.Task
	nextID int
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]*model.Task)}
}

func (m *mockTaskRepo) CreateTask(_ context.Context, task *model.Task) error {
	m.nextID++
	task.ID = fmt.Sprintf("task-%d", m.nextID)
	stored := *task
	m.tasks[task.ID] = &stored
	return nil
}

func (m *mockTaskRepo) GetTask(_ context.Context, userID, id string) (*model.Task, error) {
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return nil, apperror.NotFound("task", id)
	}
	result := *task
	return &result, nil
}

func (m *mockTaskRepo) ListTasks(_ context.Context, userID string, filter repository.TaskFilter) ([]model.Task, error) {
	var result []model.Task
	for _, t := range m.tasks {
		if t.UserID != userID {
			continue
		}
		if filter.Completed != nil && t.Completed != *filter.Completed {
			continue
		}
		if filter.GoalID != "" && t.GoalID != filter.GoalID {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTaskRepo) UpdateTask(_ context.Context, task *model.Task) error {
	existing, ok := m.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return apperror.NotFound("task", task.ID)
	}
	stored := *task
	m.tasks[task.ID] = &stored
	return nil
}

func (m *mockTaskRepo) DeleteTask(_ context.Context, userID, id string) error {
	existing, ok := m.tasks[id]
	if !ok || existing.UserID != userID {
		return apperror.NotFound("task", id)
	}
	delete(m.tasks, id)
	return nil
}

type mockHabitRepo struct {
	habits map[string]*model.Habit
	nextID int
}

func newMockHabitRepo() *mockHabitRepo {
	return &mockHabitRepo{habits: make(map[string]*model.Habit)}
}

func (m *mockHabitRepo) CreateHabit(_ context.Context, habit *model.Habit) error {
	m.nextID++
	habit.ID = fmt.Sprintf("habit-%d", m.nextID)
	stored := *habit
	m.habits[habit.ID] = &stored
	return nil
}

func (m *mockHabitRepo) GetHabit(_ context.Context, userID, id string) (*model.Habit, error) {
	habit, ok := m.habits[id]
	if !ok || habit.UserID != userID {
		return nil, apperror.NotFound("habit", id)
	}
	result := *habit
	return &result, nil
}

func (m *mockHabitRepo) ListHabits(_ context.Context, userID string) ([]model.Habit, error) {
	var result []model.Habit
	for _, h := range m.habits {
		if h.UserID == userID {
			result = append(result, *h)
		}
	}
	return result, nil
}

func (m *mockHabitRepo) UpdateHabit(_ context.Context, habit *model.Habit) error {
	existing, ok := m.habits[habit.ID]
	if !ok || existing.UserID != habit.UserID {
		return apperror.NotFound("habit", habit.ID)
	}
	stored := *habit
	m.habits[habit.ID] = &stored
	return nil
}

func (m *mockHabitRepo) DeleteHabit(_ context.Context, userID, id string) error {
	existing, ok := m.habits[id]
	if !ok || existing.UserID != userID {
		return apperror.NotFound("habit", id)
	}
	delete(m.habits, id)
	return nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

type digestFixture struct {
	svc    *NotificationService
	goals  *mockGoalRepo
	tasks  *mockTaskRepo
	habits *mockHabitRepo
	now    time.Time
}

func newDigestFixture(t *testing.T) *digestFixture {
	t.Helper()
	f := &digestFixture{
		goals:  newMockGoalRepo(),
		tasks:  newMockTaskRepo(),
		habits: newMockHabitRepo(),
		// A Tuesday at noon, so habit/task day math has room on both sides.
		now: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewNotificationService(f.goals, f.tasks, f.habits, testLogger())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *digestFixture) addTask(t *testing.T, task model.Task) {
	t.Helper()
	task.UserID = "user-a"
	if err := f.tasks.CreateTask(context.Background(), &task); err != nil {
		t.Fatal(err)
	}
}

func (f *digestFixture) addGoal(t *testing.T, goal model.Goal) {
	t.Helper()
	goal.UserID = "user-a"
	if goal.Status == "" {
		goal.Status = model.StatusInProgress
	}
	if goal.DueDate.IsZero() {
		goal.DueDate = f.now.AddDate(0, 1, 0)
	}
	if err := f.goals.CreateGoal(context.Background(), &goal); err != nil {
		t.Fatal(err)
	}
}

func (f *digestFixture) addHabit(t *testing.T, habit model.Habit) {
	t.Helper()
	habit.UserID = "user-a"
	if err := f.habits.CreateHabit(context.Background(), &habit); err != nil {
		t.Fatal(err)
	}
}

func (f *digestFixture) digest(t *testing.T) *Digest {
	t.Helper()
	d, err := f.svc.Digest(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	return d
}

func completedTask(completedAt time.Time) model.Task {
	at := completedAt
	return model.Task{Title: "done", Completed: true, CompletedAt: &at}
}

func due(t time.Time) *time.Time { return &t }

// =========================================================================
// CATEGORY BUCKETS
// =========================================================================

func TestDigest_Buckets(t *testing.T) {
	f := newDigestFixture(t)

	f.addTask(t, model.Task{Title: "late", DueDate: due(f.now.AddDate(0, 0, -2))})
	f.addTask(t, model.Task{Title: "soon", DueDate: due(f.now.AddDate(0, 0, 2))})
	f.addTask(t, model.Task{Title: "someday", DueDate: due(f.now.AddDate(0, 2, 0))})
	f.addTask(t, model.Task{Title: "undated"})

	f.addGoal(t, model.Goal{Title: "deadline", DueDate: f.now.AddDate(0, 0, 5)})
	f.addGoal(t, model.Goal{Title: "relaxed", DueDate: f.now.AddDate(0, 3, 0)})
	f.addGoal(t, model.Goal{Title: "important", Priority: model.PriorityHigh, Progress: 80})

	f.addHabit(t, model.Habit{Name: "not today"})
	f.addHabit(t, model.Habit{Name: "done today", Logs: []model.HabitLog{
		{ID: "l1", Date: model.DayOf(f.now)},
	}})

	d := f.digest(t)

	if d.Counts.OverdueTasks != 1 {
		t.Errorf("OverdueTasks = %d, want 1", d.Counts.OverdueTasks)
	}
	if d.Counts.DueSoonTasks != 1 {
		t.Errorf("DueSoonTasks = %d, want 1", d.Counts.DueSoonTasks)
	}
	// Urgent includes overdue plus due within a day.
	if d.Counts.UrgentTasks != 1 {
		t.Errorf("UrgentTasks = %d, want 1", d.Counts.UrgentTasks)
	}
	if d.Counts.GoalDeadlines != 1 {
		t.Errorf("GoalDeadlines = %d, want 1", d.Counts.GoalDeadlines)
	}
	if d.Counts.HighPriorityGoals != 1 {
		t.Errorf("HighPriorityGoals = %d, want 1", d.Counts.HighPriorityGoals)
	}
	if d.Counts.HabitReminders != 1 {
		t.Errorf("HabitReminders = %d, want 1", d.Counts.HabitReminders)
	}
	if d.Insights.TotalActiveItems != 7 {
		t.Errorf("TotalActiveItems = %d, want 7 (4 tasks + 3 goals)", d.Insights.TotalActiveItems)
	}
}

func TestDigest_RecentAchievementsTaggedAndWindowed(t *testing.T) {
	f := newDigestFixture(t)

	f.addGoal(t, model.Goal{
		Title: "marathon",
		Achievements: []model.Achievement{
			{Type: model.AchievementProgressStreak, Title: "Halfway There!", EarnedAt: f.now.AddDate(0, 0, -2)},
			{Type: model.AchievementGoalCompleted, Title: "Goal Completed!", EarnedAt: f.now.AddDate(0, 0, -30)},
		},
	})

	d := f.digest(t)

	if d.Counts.RecentAchievements != 1 {
		t.Fatalf("RecentAchievements = %d, want 1 (only within 7 days)", d.Counts.RecentAchievements)
	}
	notice := d.Details.RecentAchievements[0]
	if notice.GoalTitle != "marathon" {
		t.Errorf("GoalTitle = %q, want %q", notice.GoalTitle, "marathon")
	}
}

func TestDigest_DetailCapsCountsUncapped(t *testing.T) {
	f := newDigestFixture(t)

	for i := 0; i < 8; i++ {
		f.addTask(t, model.Task{
			Title:   fmt.Sprintf("late-%d", i),
			DueDate: due(f.now.AddDate(0, 0, -1)),
		})
	}

	d := f.digest(t)

	if d.Counts.OverdueTasks != 8 {
		t.Errorf("OverdueTasks count = %d, want 8 (uncapped)", d.Counts.OverdueTasks)
	}
	if len(d.Details.OverdueTasks) != 5 {
		t.Errorf("OverdueTasks details = %d, want 5 (capped)", len(d.Details.OverdueTasks))
	}
	if len(d.Details.UrgentTasks) != 3 {
		t.Errorf("UrgentTasks details = %d, want 3 (capped)", len(d.Details.UrgentTasks))
	}
}

// =========================================================================
// INSIGHTS
// =========================================================================

func TestDigest_AverageProgressIgnoresZeroGoals(t *testing.T) {
	f := newDigestFixture(t)

	f.addGoal(t, model.Goal{Title: "a", Progress: 40})
	f.addGoal(t, model.Goal{Title: "b", Progress: 60})
	f.addGoal(t, model.Goal{Title: "untouched", Progress: 0, Status: model.StatusNotStarted})

	d := f.digest(t)

	if d.Insights.AverageGoalProgress != 50 {
		t.Errorf("AverageGoalProgress = %d, want 50", d.Insights.AverageGoalProgress)
	}
}

func TestDigest_CompletionRate(t *testing.T) {
	f := newDigestFixture(t)

	f.addTask(t, completedTask(f.now))
	f.addTask(t, model.Task{Title: "open one"})
	f.addTask(t, model.Task{Title: "open two"})
	f.addTask(t, model.Task{Title: "open three"})

	d := f.digest(t)

	if d.Insights.TaskCompletionRate != 25 {
		t.Errorf("TaskCompletionRate = %d, want 25", d.Insights.TaskCompletionRate)
	}
}

// =========================================================================
// STREAKS
// =========================================================================

func TestTaskStreak_ThreeConsecutiveDays(t *testing.T) {
	f := newDigestFixture(t)

	f.addTask(t, completedTask(f.now))
	f.addTask(t, completedTask(f.now.AddDate(0, 0, -1)))
	f.addTask(t, completedTask(f.now.AddDate(0, 0, -2)))

	d := f.digest(t)
	if d.Insights.Streak.Tasks != 3 {
		t.Errorf("task streak = %d, want 3", d.Insights.Streak.Tasks)
	}
}

func TestTaskStreak_GapStopsTheWalk(t *testing.T) {
	f := newDigestFixture(t)

	f.addTask(t, completedTask(f.now))
	f.addTask(t, completedTask(f.now.AddDate(0, 0, -1)))
	f.addTask(t, completedTask(f.now.AddDate(0, 0, -2)))
	// Gap at day -3; the completion at day -4 must not extend the streak.
	f.addTask(t, completedTask(f.now.AddDate(0, 0, -4)))

	d := f.digest(t)
	if d.Insights.Streak.Tasks != 3 {
		t.Errorf("task streak = %d, want 3 (stop at first gap)", d.Insights.Streak.Tasks)
	}
}

func TestTaskStreak_SameDayDuplicatesCountOnce(t *testing.T) {
	f := newDigestFixture(t)

	f.addTask(t, completedTask(f.now))
	f.addTask(t, completedTask(f.now.Add(-2*time.Hour))) // same calendar day
	f.addTask(t, completedTask(f.now.AddDate(0, 0, -1)))

	d := f.digest(t)
	if d.Insights.Streak.Tasks != 2 {
		t.Errorf("task streak = %d, want 2", d.Insights.Streak.Tasks)
	}
}

func TestHabitStreak_MaxAcrossHabitsNotSum(t *testing.T) {
	f := newDigestFixture(t)

	f.addHabit(t, model.Habit{Name: "long", Logs: []model.HabitLog{
		{ID: "a1", Date: model.DayOf(f.now)},
		{ID: "a2", Date: model.DayOf(f.now.AddDate(0, 0, -1))},
		{ID: "a3", Date: model.DayOf(f.now.AddDate(0, 0, -2))},
	}})
	f.addHabit(t, model.Habit{Name: "short", Logs: []model.HabitLog{
		{ID: "b1", Date: model.DayOf(f.now)},
	}})

	d := f.digest(t)
	if d.Insights.Streak.Habits != 3 {
		t.Errorf("habit streak = %d, want 3 (max, not sum)", d.Insights.Streak.Habits)
	}
}

func TestHabitStreak_BrokenToday(t *testing.T) {
	f := newDigestFixture(t)

	// Logged yesterday and the day before, but not today: the walk starts at
	// today and stops immediately.
	f.addHabit(t, model.Habit{Name: "lapsed", Logs: []model.HabitLog{
		{ID: "c1", Date: model.DayOf(f.now.AddDate(0, 0, -1))},
		{ID: "c2", Date: model.DayOf(f.now.AddDate(0, 0, -2))},
	}})

	d := f.digest(t)
	if d.Insights.Streak.Habits != 0 {
		t.Errorf("habit streak = %d, want 0", d.Insights.Streak.Habits)
	}
}

// =========================================================================
// SUMMARY STRING
// =========================================================================

func TestSummarize_AllCaughtUp(t *testing.T) {
	got := summarize(DigestCounts{})
	want := "All caught up! Great work! 🌟"
	if got != want {
		t.Errorf("summarize() = %q, want %q", got, want)
	}
}

func TestSummarize_SingleClauseVerbatim(t *testing.T) {
	got := summarize(DigestCounts{OverdueTasks: 2})
	want := "2 overdue tasks"
	if got != want {
		t.Errorf("summarize() = %q, want %q", got, want)
	}
}

func TestSummarize_SingularClause(t *testing.T) {
	got := summarize(DigestCounts{DueSoonTasks: 1})
	want := "1 task due soon"
	if got != want {
		t.Errorf("summarize() = %q, want %q", got, want)
	}
}

func TestSummarize_TwoClauses(t *testing.T) {
	got := summarize(DigestCounts{OverdueTasks: 1, HabitReminders: 3})
	want := "1 overdue task, and 3 habits to complete today"
	if got != want {
		t.Errorf("summarize() = %q, want %q", got, want)
	}
}

func TestSummarize_ManyClauses(t *testing.T) {
	got := summarize(DigestCounts{
		OverdueTasks:       2,
		DueSoonTasks:       1,
		GoalDeadlines:      1,
		RecentAchievements: 1,
	})
	want := "2 overdue tasks, 1 task due soon, 1 goal deadline approaching, and 🎉 1 recent achievement!"
	if got != want {
		t.Errorf("summarize() = %q, want %q", got, want)
	}
}

func TestDigest_SummaryReflectsCounts(t *testing.T) {
	f := newDigestFixture(t)

	d := f.digest(t)
	if d.Summary != "All caught up! Great work! 🌟" {
		t.Errorf("empty digest summary = %q", d.Summary)
	}
}
