package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/enockm/productivity-tracker/internal/apperror"
	"github.com/enockm/productivity-tracker/internal/model"
	"github.com/enockm/productivity-tracker/internal/repository"
)

// maxProgressHistory bounds a goal's progress history. Once the cap is hit,
// the oldest entries are evicted — the history is a recent window, not an
// audit log.
const maxProgressHistory = 50

// GoalService owns the goal lifecycle: every create and update flows through
// applyLifecycle before persistence, so the stored state always satisfies the
// goal invariants (status derived from progress, bounded history, additive
// achievements).
type GoalService struct {
	repo   repository.GoalRepository
	logger *slog.Logger
	now    func() time.Time // injectable clock for deterministic tests
}

// NewGoalService creates a GoalService.
func NewGoalService(repo repository.GoalRepository, logger *slog.Logger) *GoalService {
	return &GoalService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// CreateGoalInput carries the fields a client may set when creating a goal.
type CreateGoalInput struct {
	Title         string                    `json:"title" validate:"required,max=100"`
	Description   string                    `json:"description" validate:"max=500"`
	Category      string                    `json:"category"`
	Priority      string                    `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status        string                    `json:"status" validate:"omitempty,oneof=not_started in_progress completed paused cancelled"`
	DueDate       time.Time                 `json:"dueDate" validate:"required"`
	StartDate     time.Time                 `json:"startDate"`
	Progress      int                       `json:"progress" validate:"gte=0,lte=100"`
	Tags          []string                  `json:"tags"`
	Notifications *model.NotificationConfig `json:"notifications"`
}

// UpdateGoalInput carries a partial goal update. Nil pointers mean "leave
// unchanged" — PATCH semantics.
type UpdateGoalInput struct {
	Title         *string                   `json:"title" validate:"omitempty,max=100"`
	Description   *string                   `json:"description" validate:"omitempty,max=500"`
	Category      *string                   `json:"category"`
	Priority      *string                   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status        *string                   `json:"status" validate:"omitempty,oneof=not_started in_progress completed paused cancelled"`
	DueDate       *time.Time                `json:"dueDate"`
	StartDate     *time.Time                `json:"startDate"`
	Progress      *int                      `json:"progress" validate:"omitempty,gte=0,lte=100"`
	Tags          *[]string                 `json:"tags"`
	Notifications *model.NotificationConfig `json:"notifications"`
}

// MilestoneInput carries milestone create/update fields. On update, nil
// pointers leave the field unchanged.
type MilestoneInput struct {
	Title       *string    `json:"title" validate:"omitempty,max=100"`
	Description *string    `json:"description" validate:"omitempty,max=500"`
	TargetDate  *time.Time `json:"targetDate"`
	Completed   *bool      `json:"completed"`
}

// Create validates the input, applies defaults and the lifecycle rules, and
// persists the new goal.
func (s *GoalService) Create(ctx context.Context, userID string, in CreateGoalInput) (*model.Goal, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := translateValidation(validate.Struct(in)); err != nil {
		return nil, err
	}

	now := s.now()

	goal := &model.Goal{
		UserID:      userID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Priority:    in.Priority,
		Status:      in.Status,
		DueDate:     in.DueDate,
		StartDate:   in.StartDate,
		Progress:    in.Progress,
		Tags:        in.Tags,
	}
	if goal.Category == "" {
		goal.Category = "Personal"
	}
	if goal.Priority == "" {
		goal.Priority = model.PriorityMedium
	}
	if goal.Status == "" {
		goal.Status = model.StatusNotStarted
	}
	if goal.StartDate.IsZero() {
		goal.StartDate = now
	}
	if in.Notifications != nil {
		goal.Notifications = *in.Notifications
	} else {
		goal.Notifications = model.DefaultNotificationConfig()
	}

	// A goal born with progress > 0 counts as a progress change from zero:
	// it gets a history entry and can earn the halfway achievement.
	s.applyLifecycle(goal, 0, goal.Progress != 0, "", now)

	if err := s.repo.CreateGoal(ctx, goal); err != nil {
		s.logger.Error("failed to create goal",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating goal: %w", err)
	}

	s.logger.Info("goal created",
		slog.String("id", goal.ID),
		slog.String("userID", userID),
		slog.String("title", goal.Title),
	)

	return goal, nil
}

// Get retrieves a single goal owned by the user.
func (s *GoalService) Get(ctx context.Context, userID, id string) (*model.Goal, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, apperror.ValidationFailed("id", "goal ID is required")
	}
	return s.repo.GetGoal(ctx, userID, id)
}

// List retrieves the user's goals with the given filter.
func (s *GoalService) List(ctx context.Context, userID string, filter repository.GoalFilter) ([]model.Goal, error) {
	if filter.Status != "" && !model.ValidStatus(filter.Status) {
		return nil, apperror.ValidationFailed("status", "status must be one of: not_started, in_progress, completed, paused, cancelled")
	}
	if filter.Priority != "" && !model.ValidPriority(filter.Priority) {
		return nil, apperror.ValidationFailed("priority", "priority must be one of: low, medium, high")
	}

	goals, err := s.repo.ListGoals(ctx, userID, filter)
	if err != nil {
		s.logger.Error("failed to list goals", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing goals: %w", err)
	}
	return goals, nil
}

// Update applies a partial update, re-runs the lifecycle rules, and persists.
// The lifecycle runs on EVERY write — a title-only PATCH still re-derives
// status — so the stored invariants never depend on which endpoint wrote.
func (s *GoalService) Update(ctx context.Context, userID, id string, in UpdateGoalInput) (*model.Goal, error) {
	if err := translateValidation(validate.Struct(in)); err != nil {
		return nil, err
	}

	goal, err := s.repo.GetGoal(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	oldProgress := goal.Progress

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("Title", "Title is required")
		}
		goal.Title = title
	}
	if in.Description != nil {
		goal.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil && *in.Category != "" {
		goal.Category = *in.Category
	}
	if in.Priority != nil {
		goal.Priority = *in.Priority
	}
	if in.Status != nil {
		goal.Status = *in.Status
	}
	if in.DueDate != nil {
		goal.DueDate = *in.DueDate
	}
	if in.StartDate != nil {
		goal.StartDate = *in.StartDate
	}
	if in.Progress != nil {
		goal.Progress = *in.Progress
	}
	if in.Tags != nil {
		goal.Tags = *in.Tags
	}
	if in.Notifications != nil {
		goal.Notifications = *in.Notifications
	}

	s.applyLifecycle(goal, oldProgress, goal.Progress != oldProgress, "", s.now())

	if err := s.repo.UpdateGoal(ctx, goal); err != nil {
		s.logger.Error("failed to update goal",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating goal: %w", err)
	}

	return goal, nil
}

// UpdateProgress sets the goal's progress with an optional note.
// Out-of-range values are rejected before any state is touched.
func (s *GoalService) UpdateProgress(ctx context.Context, userID, id string, progress int, note string) (*model.Goal, error) {
	if progress < 0 || progress > 100 {
		return nil, apperror.ValidationFailed("progress", "Progress must be between 0 and 100")
	}

	goal, err := s.repo.GetGoal(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	oldProgress := goal.Progress
	goal.Progress = progress

	s.applyLifecycle(goal, oldProgress, progress != oldProgress, note, s.now())

	if err := s.repo.UpdateGoal(ctx, goal); err != nil {
		s.logger.Error("failed to update goal progress",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating goal progress: %w", err)
	}

	s.logger.Info("goal progress updated",
		slog.String("id", goal.ID),
		slog.Int("from", oldProgress),
		slog.Int("to", progress),
	)

	return goal, nil
}

// Delete hard-deletes a goal and everything embedded in it.
func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	if id = strings.TrimSpace(id); id == "" {
		return apperror.ValidationFailed("id", "goal ID is required")
	}
	if err := s.repo.DeleteGoal(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("goal deleted", slog.String("id", id), slog.String("userID", userID))
	return nil
}

// AddMilestone appends a milestone to the goal.
func (s *GoalService) AddMilestone(ctx context.Context, userID, goalID string, in MilestoneInput) (*model.Milestone, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, apperror.ValidationFailed("Title", "Milestone title is required")
	}
	if err := translateValidation(validate.Struct(in)); err != nil {
		return nil, err
	}

	goal, err := s.repo.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	m := model.Milestone{
		ID:         xid.New().String(),
		Title:      strings.TrimSpace(*in.Title),
		TargetDate: in.TargetDate,
	}
	if in.Description != nil {
		m.Description = strings.TrimSpace(*in.Description)
	}
	goal.Milestones = append(goal.Milestones, m)

	// Adding a milestone is a goal write like any other — lifecycle runs,
	// though with no progress change it only re-derives status.
	s.applyLifecycle(goal, goal.Progress, false, "", s.now())

	if err := s.repo.UpdateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("adding milestone: %w", err)
	}

	return &goal.Milestones[len(goal.Milestones)-1], nil
}

// UpdateMilestone applies a partial update to one milestone. An incomplete
// milestone transitioning to complete is stamped with CompletedAt and earns a
// milestone_completed achievement.
func (s *GoalService) UpdateMilestone(ctx context.Context, userID, goalID, milestoneID string, in MilestoneInput) (*model.Milestone, error) {
	if err := translateValidation(validate.Struct(in)); err != nil {
		return nil, err
	}

	goal, err := s.repo.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	m := goal.MilestoneByID(milestoneID)
	if m == nil {
		return nil, apperror.NotFound("milestone", milestoneID)
	}

	now := s.now()

	if in.Completed != nil && *in.Completed && !m.Completed {
		completedAt := now
		m.CompletedAt = &completedAt
		goal.Achievements = append(goal.Achievements, model.Achievement{
			Type:        model.AchievementMilestoneCompleted,
			Title:       "Milestone Achieved!",
			Description: fmt.Sprintf("Completed milestone %q for goal %q", m.Title, goal.Title),
			EarnedAt:    now,
		})
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("Title", "Milestone title is required")
		}
		m.Title = title
	}
	if in.Description != nil {
		m.Description = strings.TrimSpace(*in.Description)
	}
	if in.TargetDate != nil {
		m.TargetDate = in.TargetDate
	}
	if in.Completed != nil {
		m.Completed = *in.Completed
	}

	s.applyLifecycle(goal, goal.Progress, false, "", now)

	if err := s.repo.UpdateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("updating milestone: %w", err)
	}

	return m, nil
}

// DeleteMilestone removes one milestone from the goal.
func (s *GoalService) DeleteMilestone(ctx context.Context, userID, goalID, milestoneID string) error {
	goal, err := s.repo.GetGoal(ctx, userID, goalID)
	if err != nil {
		return err
	}

	found := false
	kept := goal.Milestones[:0]
	for _, m := range goal.Milestones {
		if m.ID == milestoneID {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return apperror.NotFound("milestone", milestoneID)
	}
	goal.Milestones = kept

	s.applyLifecycle(goal, goal.Progress, false, "", s.now())

	if err := s.repo.UpdateGoal(ctx, goal); err != nil {
		return fmt.Errorf("deleting milestone: %w", err)
	}

	return nil
}

// Achievements returns the goal's achievement list.
func (s *GoalService) Achievements(ctx context.Context, userID, goalID string) ([]model.Achievement, error) {
	goal, err := s.repo.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Achievements == nil {
		return []model.Achievement{}, nil
	}
	return goal.Achievements, nil
}

// applyLifecycle enforces the goal invariants on a pending write.
//
// It runs before every persistence call, in this order:
//  1. Derive status from progress. 100% always completes; any progress on a
//     not_started goal starts it. Manual paused/cancelled survive otherwise.
//  2. If progress changed, stamp LastProgressUpdate and append one history
//     entry (note defaults to "Progress updated to N%"), evicting beyond 50.
//  3. If progress changed, emit threshold-crossing achievements. Crossing 100
//     from below emits goal_completed; otherwise crossing 50 from below emits
//     progress_streak. Re-crossing re-emits — each crossing is its own event.
func (s *GoalService) applyLifecycle(goal *model.Goal, oldProgress int, progressChanged bool, note string, now time.Time) {
	if goal.Progress >= 100 && goal.Status != model.StatusCompleted {
		goal.Status = model.StatusCompleted
	} else if goal.Progress > 0 && goal.Status == model.StatusNotStarted {
		goal.Status = model.StatusInProgress
	}

	if !progressChanged {
		return
	}

	goal.LastProgressUpdate = now

	if note == "" {
		note = fmt.Sprintf("Progress updated to %d%%", goal.Progress)
	}
	goal.ProgressHistory = append(goal.ProgressHistory, model.ProgressEntry{
		Date:     now,
		Progress: goal.Progress,
		Note:     note,
	})
	if len(goal.ProgressHistory) > maxProgressHistory {
		goal.ProgressHistory = goal.ProgressHistory[len(goal.ProgressHistory)-maxProgressHistory:]
	}

	switch {
	case goal.Progress >= 100 && oldProgress < 100:
		goal.Achievements = append(goal.Achievements, model.Achievement{
			Type:        model.AchievementGoalCompleted,
			Title:       "Goal Completed!",
			Description: fmt.Sprintf("Congratulations on completing %q", goal.Title),
			EarnedAt:    now,
		})
	case goal.Progress >= 50 && oldProgress < 50:
		goal.Achievements = append(goal.Achievements, model.Achievement{
			Type:        model.AchievementProgressStreak,
			Title:       "Halfway There!",
			Description: fmt.Sprintf("You've reached 50%% progress on %q", goal.Title),
			EarnedAt:    now,
		})
	}
}
