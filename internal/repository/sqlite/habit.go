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

var _ repository.HabitRepository = (*DB)(nil)

const habitColumns = `id, user_id, name, description, logs, created_at, updated_at`

func (db *DB) CreateHabit(ctx context.Context, habit *model.Habit) error {
	habit.ID = xid.New().String()
	now := time.Now()
	habit.CreatedAt = now
	habit.UpdatedAt = now

	logs, err := marshalJSON(emptyLogs(habit.Logs))
	if err != nil {
		return fmt.Errorf("sqlite: creating habit: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO habits (`+habitColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		habit.ID,
		habit.UserID,
		habit.Name,
		habit.Description,
		logs,
		habit.CreatedAt,
		habit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating habit: %w", err)
	}

	return nil
}

func (db *DB) GetHabit(ctx context.Context, userID, id string) (*model.Habit, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE id = ? AND user_id = ?`,
		id, userID)

	habit, err := scanHabit(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("habit", id)
		}
		return nil, fmt.Errorf("sqlite: getting habit %s: %w", id, err)
	}

	return habit, nil
}

func (db *DB) ListHabits(ctx context.Context, userID string) ([]model.Habit, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE user_id = ? ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning habit row: %w", err)
		}
		habits = append(habits, *habit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating habits: %w", err)
	}

	return habits, nil
}

// UpdateHabit writes the whole aggregate back, logs included.
func (db *DB) UpdateHabit(ctx context.Context, habit *model.Habit) error {
	habit.UpdatedAt = time.Now()

	logs, err := marshalJSON(emptyLogs(habit.Logs))
	if err != nil {
		return fmt.Errorf("sqlite: updating habit %s: %w", habit.ID, err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE habits
		 SET name = ?, description = ?, logs = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		habit.Name,
		habit.Description,
		logs,
		habit.UpdatedAt,
		habit.ID,
		habit.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating habit %s: %w", habit.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("habit", habit.ID)
	}

	return nil
}

func (db *DB) DeleteHabit(ctx context.Context, userID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting habit %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("habit", id)
	}

	return nil
}

func scanHabit(s scanner) (*model.Habit, error) {
	var (
		h    model.Habit
		logs string
	)
	err := s.Scan(
		&h.ID,
		&h.UserID,
		&h.Name,
		&h.Description,
		&logs,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(logs, &h.Logs); err != nil {
		return nil, err
	}
	return &h, nil
}

func emptyLogs(in []model.HabitLog) []model.HabitLog {
	if in == nil {
		return []model.HabitLog{}
	}
	return in
}
