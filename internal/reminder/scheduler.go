package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/enockm/productivity-tracker/internal/model"
	"github.com/enockm/productivity-tracker/internal/repository"
)

// Wall-clock schedules, evaluated in the server's local timezone.
const (
	dailySchedule  = "0 8 * * *"  // every day at 08:00
	weeklySchedule = "0 18 * * 0" // Sundays at 18:00
)

// Scheduler owns the two reminder triggers. There is no persisted last-run
// state: a missed window (process down at trigger time) is simply skipped,
// and the next trigger re-evaluates the same conditions.
//
// RunDaily and RunWeekly are exported so a caller (or a test) can fire a
// sweep directly instead of waiting on the wall clock.
type Scheduler struct {
	store  repository.Store
	mailer Mailer
	logger *slog.Logger
	cron   *cron.Cron
}

func NewScheduler(store repository.Store, mailer Mailer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:  store,
		mailer: mailer,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start registers the cron entries and launches the scheduler goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(dailySchedule, func() {
		s.RunDaily(context.Background(), time.Now())
	}); err != nil {
		return fmt.Errorf("reminder: registering daily schedule: %w", err)
	}
	if _, err := s.cron.AddFunc(weeklySchedule, func() {
		s.RunWeekly(context.Background(), time.Now())
	}); err != nil {
		return fmt.Errorf("reminder: registering weekly schedule: %w", err)
	}

	s.cron.Start()
	s.logger.Info("reminder scheduler started",
		"daily", dailySchedule, "weekly", weeklySchedule)
	return nil
}

// Stop halts the scheduler and waits for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("reminder scheduler stopped")
}

// RunDaily performs one daily sweep over every user. A failure for one user
// is logged and does not stop the loop; no retry happens until the next
// trigger.
func (s *Scheduler) RunDaily(ctx context.Context, now time.Time) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		s.logger.Error("daily sweep aborted: listing users", "error", err)
		return
	}

	for i := range users {
		if err := s.remindUser(ctx, &users[i], now); err != nil {
			s.logger.Error("daily reminders failed for user",
				"user_id", users[i].ID, "error", err)
		}
	}
}

// remindUser sends up to three emails to one user: pending tasks, goals
// near their deadline, and habit nudges. Habit nudges are suppressed on
// Sunday, the weekly rest day.
func (s *Scheduler) remindUser(ctx context.Context, user *model.User, now time.Time) error {
	if !user.Settings.EmailNotifications || !user.Settings.DailyReminders {
		return nil
	}

	incomplete := false
	tasks, err := s.store.ListTasks(ctx, user.ID, repository.TaskFilter{Completed: &incomplete})
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}

	// Tasks due tomorrow, or already overdue.
	tomorrow := model.DayOf(now).AddDate(0, 0, 1)
	dayAfter := tomorrow.AddDate(0, 0, 1)
	var pending []model.Task
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		dueTomorrow := !t.DueDate.Before(tomorrow) && t.DueDate.Before(dayAfter)
		if dueTomorrow || t.DueDate.Before(now) {
			pending = append(pending, t)
		}
	}

	goals, err := s.store.ListGoals(ctx, user.ID, repository.GoalFilter{
		Statuses: []string{model.StatusNotStarted, model.StatusInProgress},
		Limit:    200,
	})
	if err != nil {
		return fmt.Errorf("listing goals: %w", err)
	}

	var nearDeadline []model.Goal
	for _, g := range goals {
		days := g.DaysUntilDue(now)
		if (days > 0 && days <= 3) || days < 0 {
			nearDeadline = append(nearDeadline, g)
		}
	}

	habits, err := s.store.ListHabits(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("listing habits: %w", err)
	}

	name := greeting(user)

	if len(pending) > 0 {
		body, err := renderTemplate(taskTemplate, taskEmailData{Name: name, Tasks: pending})
		if err != nil {
			return err
		}
		subject := fmt.Sprintf("📋 Task Reminders - %d items need your attention", len(pending))
		if err := s.mailer.Send(user.Email, subject, body); err != nil {
			return err
		}
		s.logger.Info("sent task reminders", "user_id", user.ID, "tasks", len(pending))
	}

	if len(nearDeadline) > 0 {
		body, err := renderTemplate(goalTemplate, goalEmailData{Name: name, Goals: nearDeadline})
		if err != nil {
			return err
		}
		subject := "🎯 Goal Reminders - Keep pushing towards your objectives!"
		if err := s.mailer.Send(user.Email, subject, body); err != nil {
			return err
		}
		s.logger.Info("sent goal reminders", "user_id", user.ID, "goals", len(nearDeadline))
	}

	if len(habits) > 0 && now.Weekday() != time.Sunday {
		body, err := renderTemplate(habitTemplate, habitEmailData{Name: name, Habits: habits})
		if err != nil {
			return err
		}
		subject := "🔥 Habit Reminders - Keep your streak alive!"
		if err := s.mailer.Send(user.Email, subject, body); err != nil {
			return err
		}
		s.logger.Info("sent habit reminders", "user_id", user.ID, "habits", len(habits))
	}

	return nil
}

// RunWeekly performs one weekly report sweep.
func (s *Scheduler) RunWeekly(ctx context.Context, now time.Time) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		s.logger.Error("weekly sweep aborted: listing users", "error", err)
		return
	}

	for i := range users {
		if err := s.reportUser(ctx, &users[i], now); err != nil {
			s.logger.Error("weekly report failed for user",
				"user_id", users[i].ID, "error", err)
		}
	}
}

// reportUser computes the trailing-7-day figures and sends the summary email
// when there is anything worth reporting.
func (s *Scheduler) reportUser(ctx context.Context, user *model.User, now time.Time) error {
	if !user.Settings.EmailNotifications || !user.Settings.WeeklyReports {
		return nil
	}

	weekAgo := now.AddDate(0, 0, -7)

	completed := true
	doneTasks, err := s.store.ListTasks(ctx, user.ID, repository.TaskFilter{Completed: &completed})
	if err != nil {
		return fmt.Errorf("listing completed tasks: %w", err)
	}
	completedTasks := 0
	for _, t := range doneTasks {
		if t.CompletedAt != nil && t.CompletedAt.After(weekAgo) {
			completedTasks++
		}
	}

	doneGoals, err := s.store.ListGoals(ctx, user.ID, repository.GoalFilter{
		Status: model.StatusCompleted,
		Limit:  200,
	})
	if err != nil {
		return fmt.Errorf("listing completed goals: %w", err)
	}
	completedGoals := 0
	for _, g := range doneGoals {
		if g.UpdatedAt.After(weekAgo) {
			completedGoals++
		}
	}

	inProgress, err := s.store.ListGoals(ctx, user.ID, repository.GoalFilter{
		Status: model.StatusInProgress,
		Limit:  200,
	})
	if err != nil {
		return fmt.Errorf("listing in-progress goals: %w", err)
	}
	avgProgress := 0
	if len(inProgress) > 0 {
		sum := 0
		for _, g := range inProgress {
			sum += g.Progress
		}
		avgProgress = int(math.Round(float64(sum) / float64(len(inProgress))))
	}

	if completedTasks == 0 && completedGoals == 0 && len(inProgress) == 0 {
		return nil
	}

	body, err := renderTemplate(weeklyTemplate, weeklyEmailData{
		Name:            greeting(user),
		CompletedTasks:  completedTasks,
		CompletedGoals:  completedGoals,
		AverageProgress: avgProgress,
		ActiveGoals:     len(inProgress),
	})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(user.Email, "📊 Your Weekly Progress Summary", body); err != nil {
		return err
	}
	s.logger.Info("sent weekly progress report", "user_id", user.ID)
	return nil
}
