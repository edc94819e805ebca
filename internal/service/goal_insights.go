package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/enockm/productivity-tracker/internal/model"
	"github.com/enockm/productivity-tracker/internal/repository"
)

// GoalAlerts categorizes a user's goals for the goal-centric notification
// endpoint: overdue, due within a week, inside their reminder window, and
// completed within the last week.
type GoalAlerts struct {
	Counts  GoalAlertCounts  `json:"counts"`
	Details GoalAlertDetails `json:"details"`
}

type GoalAlertCounts struct {
	Overdue           int `json:"overdue"`
	DueSoon           int `json:"dueSoon"`
	NeedingReminder   int `json:"needingReminder"`
	CompletedRecently int `json:"completedRecently"`
}

type GoalAlertDetails struct {
	Overdue           []model.GoalDetail `json:"overdue"`
	DueSoon           []model.GoalDetail `json:"dueSoon"`
	NeedingReminder   []model.GoalDetail `json:"needingReminder"`
	CompletedRecently []model.GoalDetail `json:"completedRecently"`
}

// Alerts scans all of the user's goals and buckets them. A goal can appear in
// more than one bucket (an overdue goal with reminders enabled is both
// overdue and needing a reminder).
func (s *GoalService) Alerts(ctx context.Context, userID string) (*GoalAlerts, error) {
	goals, err := s.repo.ListGoals(ctx, userID, repository.GoalFilter{Limit: 200})
	if err != nil {
		return nil, fmt.Errorf("listing goals for alerts: %w", err)
	}

	now := s.now()
	alerts := &GoalAlerts{
		Details: GoalAlertDetails{
			Overdue:           []model.GoalDetail{},
			DueSoon:           []model.GoalDetail{},
			NeedingReminder:   []model.GoalDetail{},
			CompletedRecently: []model.GoalDetail{},
		},
	}

	for i := range goals {
		g := &goals[i]
		detail := g.Detail(now)

		if g.IsOverdue(now) {
			alerts.Details.Overdue = append(alerts.Details.Overdue, detail)
		}
		if g.IsDueSoon(now) {
			alerts.Details.DueSoon = append(alerts.Details.DueSoon, detail)
		}
		if g.NeedsReminder(now) {
			alerts.Details.NeedingReminder = append(alerts.Details.NeedingReminder, detail)
		}
		if g.Status == model.StatusCompleted && now.Sub(g.UpdatedAt) <= 7*24*time.Hour {
			alerts.Details.CompletedRecently = append(alerts.Details.CompletedRecently, detail)
		}
	}

	alerts.Counts = GoalAlertCounts{
		Overdue:           len(alerts.Details.Overdue),
		DueSoon:           len(alerts.Details.DueSoon),
		NeedingReminder:   len(alerts.Details.NeedingReminder),
		CompletedRecently: len(alerts.Details.CompletedRecently),
	}

	return alerts, nil
}

// GoalStats aggregates counts and average progress across a user's goals.
type GoalStats struct {
	Total           int            `json:"total"`
	Completed       int            `json:"completed"`
	InProgress      int            `json:"inProgress"`
	NotStarted      int            `json:"notStarted"`
	Overdue         int            `json:"overdue"`
	DueSoon         int            `json:"dueSoon"`
	AverageProgress int            `json:"averageProgress"`
	ByPriority      map[string]int `json:"byPriority"`
	ByCategory      map[string]int `json:"byCategory"`
}

// Stats computes aggregate statistics over every goal the user owns.
// AverageProgress here averages across ALL goals (the per-goal dashboard
// figure), unlike the notification aggregator's average, which only counts
// goals with progress underway.
func (s *GoalService) Stats(ctx context.Context, userID string) (*GoalStats, error) {
	goals, err := s.repo.ListGoals(ctx, userID, repository.GoalFilter{Limit: 200})
	if err != nil {
		return nil, fmt.Errorf("listing goals for stats: %w", err)
	}

	now := s.now()
	stats := &GoalStats{
		Total: len(goals),
		ByPriority: map[string]int{
			model.PriorityHigh:   0,
			model.PriorityMedium: 0,
			model.PriorityLow:    0,
		},
		ByCategory: map[string]int{},
	}

	progressSum := 0
	for i := range goals {
		g := &goals[i]
		progressSum += g.Progress

		switch g.Status {
		case model.StatusCompleted:
			stats.Completed++
		case model.StatusInProgress:
			stats.InProgress++
		case model.StatusNotStarted:
			stats.NotStarted++
		}
		if g.IsOverdue(now) {
			stats.Overdue++
		}
		if g.IsDueSoon(now) {
			stats.DueSoon++
		}
		stats.ByPriority[g.Priority]++
		stats.ByCategory[g.Category]++
	}

	if len(goals) > 0 {
		stats.AverageProgress = int(math.Round(float64(progressSum) / float64(len(goals))))
	}

	return stats, nil
}
