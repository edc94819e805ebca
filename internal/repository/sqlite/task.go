package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/enockm/productivity-tracker/internal/apperror"
	"github.com/enockm/productivity-tracker/internal/model"
	"github.com/enockm/productivity-tracker/internal/repository"
)

var _ repository.TaskRepository = (*DB)(nil)

const taskColumns = `id, user_id, goal_id, title, description, priority, due_date,
	completed, completed_at, created_at, updated_at`

func (db *DB) CreateTask(ctx context.Context, task *model.Task) error {
	task.ID = xid.New().String()
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.GoalID,
		task.Title,
		task.Description,
		task.Priority,
		task.DueDate,
		task.Completed,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating task: %w", err)
	}

	return nil
}

func (db *DB) GetTask(ctx context.Context, userID, id string) (*model.Task, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`,
		id, userID)

	task, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %s: %w", id, err)
	}

	return task, nil
}

func (db *DB) ListTasks(ctx context.Context, userID string, filter repository.TaskFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}

	if filter.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, *filter.Completed)
	}
	if filter.GoalID != "" {
		query += ` AND goal_id = ?`
		args = append(args, filter.GoalID)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}

	return tasks, nil
}

func (db *DB) UpdateTask(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE tasks
		 SET goal_id = ?, title = ?, description = ?, priority = ?, due_date = ?,
		     completed = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		task.GoalID,
		task.Title,
		task.Description,
		task.Priority,
		task.DueDate,
		task.Completed,
		task.CompletedAt,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating task %s: %w", task.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("task", task.ID)
	}

	return nil
}

func (db *DB) DeleteTask(ctx context.Context, userID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("task", id)
	}

	return nil
}

func scanTask(s scanner) (*model.Task, error) {
	var (
		t           model.Task
		dueDate     sql.NullTime
		completedAt sql.NullTime
	)
	err := s.Scan(
		&t.ID,
		&t.UserID,
		&t.GoalID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&dueDate,
		&t.Completed,
		&completedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if completedAt.Valid {
		c := completedAt.Time
		t.CompletedAt = &c
	}
	return &t, nil
}
