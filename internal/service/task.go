package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/enockm/productivity-tracker/internal/apperror"
	"github.com/enockm/productivity-tracker/internal/model"
	"github.com/enockm/productivity-tracker/internal/repository"
)

// TaskService owns the business rules around tasks, chiefly the completion
// timestamp: flipping Completed on stamps CompletedAt, flipping it back off
// clears it.
type TaskService struct {
	repo   repository.TaskRepository
	logger *slog.Logger

	now func() time.Time
}

func NewTaskService(repo repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

type CreateTaskInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=1000"`
	GoalID      string     `json:"goalId"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

type UpdateTaskInput struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	GoalID      *string    `json:"goalId"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
	Completed   *bool      `json:"completed"`
}

func (s *TaskService) Create(ctx context.Context, userID string, in CreateTaskInput) (*model.Task, error) {
	if err := validate.Struct(in); err != nil {
		return nil, translateValidation(err)
	}

	now := s.now()
	task := &model.Task{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		GoalID:      in.GoalID,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	s.logger.Info("task created", "task_id", task.ID, "user_id", userID)
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*model.Task, error) {
	return s.repo.GetTask(ctx, userID, taskID)
}

func (s *TaskService) List(ctx context.Context, userID string, filter repository.TaskFilter) ([]model.Task, error) {
	return s.repo.ListTasks(ctx, userID, filter)
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, in UpdateTaskInput) (*model.Task, error) {
	if err := validate.Struct(in); err != nil {
		return nil, translateValidation(err)
	}

	task, err := s.repo.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, apperror.ValidationFailed("title", "title cannot be empty")
		}
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.GoalID != nil {
		task.GoalID = *in.GoalID
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	if in.Completed != nil {
		s.setCompleted(task, *in.Completed)
	}
	task.UpdatedAt = s.now()

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}
	return task, nil
}

// Toggle flips a task's completion state in one call, the common path for a
// checkbox UI.
func (s *TaskService) Toggle(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.repo.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	s.setCompleted(task, !task.Completed)
	task.UpdatedAt = s.now()

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("toggling task: %w", err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	return s.repo.DeleteTask(ctx, userID, taskID)
}

// setCompleted keeps Completed and CompletedAt in lockstep. Re-completing an
// already-complete task does not move the original completion time.
func (s *TaskService) setCompleted(task *model.Task, completed bool) {
	if completed == task.Completed {
		return
	}
	task.Completed = completed
	if completed {
		t := s.now()
		task.CompletedAt = &t
	} else {
		task.CompletedAt = nil
	}
}
