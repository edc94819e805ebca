package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/enockm/productivity-tracker/internal/apperror"
	"github.com/enockm/productivity-tracker/internal/model"
	"github.com/enockm/productivity-tracker/internal/repository"
)

// HabitService manages habits and their daily logs. The one rule that
// matters: a habit can be logged at most once per calendar day.
type HabitService struct {
	repo   repository.HabitRepository
	logger *slog.Logger

	now func() time.Time
}

func NewHabitService(repo repository.HabitRepository, logger *slog.Logger) *HabitService {
	return &HabitService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

type CreateHabitInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type UpdateHabitInput struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

func (s *HabitService) Create(ctx context.Context, userID string, in CreateHabitInput) (*model.Habit, error) {
	if err := validate.Struct(in); err != nil {
		return nil, translateValidation(err)
	}

	now := s.now()
	habit := &model.Habit{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Logs:        []model.HabitLog{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateHabit(ctx, habit); err != nil {
		return nil, fmt.Errorf("creating habit: %w", err)
	}
	s.logger.Info("habit created", "habit_id", habit.ID, "user_id", userID)
	return habit, nil
}

func (s *HabitService) Get(ctx context.Context, userID, habitID string) (*model.Habit, error) {
	return s.repo.GetHabit(ctx, userID, habitID)
}

func (s *HabitService) List(ctx context.Context, userID string) ([]model.Habit, error) {
	return s.repo.ListHabits(ctx, userID)
}

func (s *HabitService) Update(ctx context.Context, userID, habitID string, in UpdateHabitInput) (*model.Habit, error) {
	if err := validate.Struct(in); err != nil {
		return nil, translateValidation(err)
	}

	habit, err := s.repo.GetHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperror.ValidationFailed("name", "name cannot be empty")
		}
		habit.Name = *in.Name
	}
	if in.Description != nil {
		habit.Description = *in.Description
	}
	habit.UpdatedAt = s.now()

	if err := s.repo.UpdateHabit(ctx, habit); err != nil {
		return nil, fmt.Errorf("updating habit: %w", err)
	}
	return habit, nil
}

func (s *HabitService) Delete(ctx context.Context, userID, habitID string) error {
	return s.repo.DeleteHabit(ctx, userID, habitID)
}

// AddLog records that the habit was done on the given day. When `on` is the
// zero time, the current day is used. Logging a day that already has an entry
// is a conflict, keeping at most one log per calendar day.
func (s *HabitService) AddLog(ctx context.Context, userID, habitID string, on time.Time) (*model.Habit, error) {
	habit, err := s.repo.GetHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	if on.IsZero() {
		on = s.now()
	}
	day := model.DayOf(on)

	if habit.LoggedOn(day) {
		return nil, apperror.Conflict("habit already logged for this day")
	}

	habit.Logs = append(habit.Logs, model.HabitLog{
		ID:   xid.New().String(),
		Date: day,
	})
	habit.UpdatedAt = s.now()

	if err := s.repo.UpdateHabit(ctx, habit); err != nil {
		return nil, fmt.Errorf("logging habit: %w", err)
	}
	return habit, nil
}

// DeleteLog removes a single log entry by its ID.
func (s *HabitService) DeleteLog(ctx context.Context, userID, habitID, logID string) (*model.Habit, error) {
	habit, err := s.repo.GetHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range habit.Logs {
		if habit.Logs[i].ID == logID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperror.NotFound("habit log", logID)
	}

	habit.Logs = append(habit.Logs[:idx], habit.Logs[idx+1:]...)
	habit.UpdatedAt = s.now()

	if err := s.repo.UpdateHabit(ctx, habit); err != nil {
		return nil, fmt.Errorf("removing habit log: %w", err)
	}
	return habit, nil
}
