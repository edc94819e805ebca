package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/enockm/productivity-tracker/internal/model"
	"github.com/enockm/productivity-tracker/internal/repository"
)

// Dashboard detail caps. Counts are always reported uncapped; the capped
// slices exist so the dashboard widget stays a fixed size.
const (
	dashboardCap = 5
	urgentCap    = 3
)

// NotificationService computes the dashboard notification digest: categorized
// counts and details, progress insights, streaks, and a one-line summary.
// It is read-only and computes everything per request; nothing is cached.
type NotificationService struct {
	goals  repository.GoalRepository
	tasks  repository.TaskRepository
	habits repository.HabitRepository
	logger *slog.Logger

	now func() time.Time
}

func NewNotificationService(
	goals repository.GoalRepository,
	tasks repository.TaskRepository,
	habits repository.HabitRepository,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		goals:  goals,
		tasks:  tasks,
		habits: habits,
		logger: logger,
		now:    time.Now,
	}
}

// Digest is the full notification payload for the dashboard.
type Digest struct {
	Counts   DigestCounts  `json:"counts"`
	Details  DigestDetails `json:"details"`
	Insights Insights      `json:"insights"`
	Summary  string        `json:"summary"`
}

type DigestCounts struct {
	OverdueTasks       int `json:"overdueTasks"`
	DueSoonTasks       int `json:"dueSoonTasks"`
	GoalDeadlines      int `json:"goalDeadlines"`
	HabitReminders     int `json:"habitReminders"`
	UrgentTasks        int `json:"urgentTasks"`
	HighPriorityGoals  int `json:"highPriorityGoals"`
	RecentAchievements int `json:"recentAchievements"`
}

type DigestDetails struct {
	OverdueTasks       []model.Task        `json:"overdueTasks"`
	DueSoonTasks       []model.Task        `json:"dueSoonTasks"`
	GoalDeadlines      []model.Goal        `json:"goalDeadlines"`
	HabitReminders     []model.Habit       `json:"habitReminders"`
	UrgentTasks        []model.Task        `json:"urgentTasks"`
	HighPriorityGoals  []model.Goal        `json:"highPriorityGoals"`
	RecentAchievements []AchievementNotice `json:"recentAchievements"`
}

// AchievementNotice is a goal achievement flattened out of its goal and
// tagged with the goal's title for display.
type AchievementNotice struct {
	model.Achievement
	GoalTitle string `json:"goalTitle"`
}

type Insights struct {
	AverageGoalProgress int     `json:"averageGoalProgress"`
	TaskCompletionRate  int     `json:"taskCompletionRate"`
	TotalActiveItems    int     `json:"totalActiveItems"`
	Streak              Streaks `json:"streak"`
}

type Streaks struct {
	Tasks  int `json:"tasks"`
	Habits int `json:"habits"`
}

// Digest computes the notification payload over the user's incomplete tasks,
// active (not_started / in_progress) goals, and all habits.
func (s *NotificationService) Digest(ctx context.Context, userID string) (*Digest, error) {
	incomplete := false
	openTasks, err := s.tasks.ListTasks(ctx, userID, repository.TaskFilter{Completed: &incomplete})
	if err != nil {
		return nil, fmt.Errorf("listing open tasks: %w", err)
	}

	goals, err := s.goals.ListGoals(ctx, userID, repository.GoalFilter{
		Statuses: []string{model.StatusNotStarted, model.StatusInProgress},
		Limit:    200,
	})
	if err != nil {
		return nil, fmt.Errorf("listing active goals: %w", err)
	}

	habits, err := s.habits.ListHabits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing habits: %w", err)
	}

	completed := true
	doneTasks, err := s.tasks.ListTasks(ctx, userID, repository.TaskFilter{Completed: &completed})
	if err != nil {
		return nil, fmt.Errorf("listing completed tasks: %w", err)
	}

	now := s.now()
	d := &Digest{}

	var (
		overdue      []model.Task
		dueSoon      []model.Task
		urgent       []model.Task
		deadlines    []model.Goal
		reminders    []model.Habit
		highPriority []model.Goal
		achievements []AchievementNotice
	)

	for _, t := range openTasks {
		if t.IsOverdue(now) {
			overdue = append(overdue, t)
		}
		if days, ok := t.DaysUntilDue(now); ok {
			if days > 0 && days <= 3 {
				dueSoon = append(dueSoon, t)
			}
			if days <= 1 {
				urgent = append(urgent, t)
			}
		}
	}

	for _, g := range goals {
		days := g.DaysUntilDue(now)
		if (days > 0 && days <= 7) || days < 0 {
			deadlines = append(deadlines, g)
		}
		if g.Priority == model.PriorityHigh && g.Progress < 100 {
			highPriority = append(highPriority, g)
		}
		for _, a := range g.Achievements {
			if now.Sub(a.EarnedAt) <= 7*24*time.Hour {
				achievements = append(achievements, AchievementNotice{
					Achievement: a,
					GoalTitle:   g.Title,
				})
			}
		}
	}

	for _, h := range habits {
		if !h.LoggedOn(now) {
			reminders = append(reminders, h)
		}
	}

	d.Counts = DigestCounts{
		OverdueTasks:       len(overdue),
		DueSoonTasks:       len(dueSoon),
		GoalDeadlines:      len(deadlines),
		HabitReminders:     len(reminders),
		UrgentTasks:        len(urgent),
		HighPriorityGoals:  len(highPriority),
		RecentAchievements: len(achievements),
	}
	d.Details = DigestDetails{
		OverdueTasks:       capTasks(overdue, dashboardCap),
		DueSoonTasks:       capTasks(dueSoon, dashboardCap),
		GoalDeadlines:      capGoals(deadlines, dashboardCap),
		HabitReminders:     capHabits(reminders, dashboardCap),
		UrgentTasks:        capTasks(urgent, urgentCap),
		HighPriorityGoals:  capGoals(highPriority, urgentCap),
		RecentAchievements: capNotices(achievements, dashboardCap),
	}

	d.Insights = Insights{
		AverageGoalProgress: averageActiveProgress(goals),
		TaskCompletionRate:  completionRate(len(doneTasks), len(openTasks)+len(doneTasks)),
		TotalActiveItems:    len(openTasks) + len(goals),
		Streak: Streaks{
			Tasks:  taskStreak(doneTasks, now),
			Habits: habitStreak(habits, now),
		},
	}

	d.Summary = summarize(d.Counts)
	return d, nil
}

// averageActiveProgress averages progress across goals that have any progress
// at all; goals still at zero would only drag the number down without telling
// the user anything.
func averageActiveProgress(goals []model.Goal) int {
	sum, n := 0, 0
	for _, g := range goals {
		if g.Progress > 0 {
			sum += g.Progress
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

func completionRate(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// taskStreak counts consecutive calendar days, walking backward from today,
// on which at least one task was completed. The walk stops at the first day
// with no completion; several completions on one day count as a single day.
func taskStreak(done []model.Task, now time.Time) int {
	days := make(map[time.Time]bool)
	for _, t := range done {
		if t.CompletedAt != nil {
			days[model.DayOf(*t.CompletedAt)] = true
		}
	}

	streak := 0
	for day := model.DayOf(now); days[day]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// habitStreak runs the same backward walk over each habit's logs and returns
// the best single habit's streak, not the sum.
func habitStreak(habits []model.Habit, now time.Time) int {
	best := 0
	for _, h := range habits {
		days := make(map[time.Time]bool)
		for _, l := range h.Logs {
			days[model.DayOf(l.Date)] = true
		}

		streak := 0
		for day := model.DayOf(now); days[day]; day = day.AddDate(0, 0, -1) {
			streak++
		}
		if streak > best {
			best = streak
		}
	}
	return best
}

// summarize renders the counts as one human sentence. Categories with a zero
// count are omitted; urgent/high-priority are deliberately excluded since
// they overlap the other buckets.
func summarize(c DigestCounts) string {
	var clauses []string

	if c.OverdueTasks > 0 {
		clauses = append(clauses, fmt.Sprintf("%d overdue task%s", c.OverdueTasks, plural(c.OverdueTasks)))
	}
	if c.DueSoonTasks > 0 {
		clauses = append(clauses, fmt.Sprintf("%d task%s due soon", c.DueSoonTasks, plural(c.DueSoonTasks)))
	}
	if c.GoalDeadlines > 0 {
		clauses = append(clauses, fmt.Sprintf("%d goal deadline%s approaching", c.GoalDeadlines, plural(c.GoalDeadlines)))
	}
	if c.HabitReminders > 0 {
		clauses = append(clauses, fmt.Sprintf("%d habit%s to complete today", c.HabitReminders, plural(c.HabitReminders)))
	}
	if c.RecentAchievements > 0 {
		clauses = append(clauses, fmt.Sprintf("🎉 %d recent achievement%s!", c.RecentAchievements, plural(c.RecentAchievements)))
	}

	switch len(clauses) {
	case 0:
		return "All caught up! Great work! 🌟"
	case 1:
		return clauses[0]
	}
	return strings.Join(clauses[:len(clauses)-1], ", ") + ", and " + clauses[len(clauses)-1]
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func capTasks(ts []model.Task, n int) []model.Task {
	if ts == nil {
		return []model.Task{}
	}
	if len(ts) > n {
		return ts[:n]
	}
	return ts
}

func capGoals(gs []model.Goal, n int) []model.Goal {
	if gs == nil {
		return []model.Goal{}
	}
	if len(gs) > n {
		return gs[:n]
	}
	return gs
}

func capHabits(hs []model.Habit, n int) []model.Habit {
	if hs == nil {
		return []model.Habit{}
	}
	if len(hs) > n {
		return hs[:n]
	}
	return hs
}

func capNotices(as []AchievementNotice, n int) []AchievementNotice {
	if as == nil {
		return []AchievementNotice{}
	}
	if len(as) > n {
		return as[:n]
	}
	return as
}
