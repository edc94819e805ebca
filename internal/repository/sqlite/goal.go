package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/enockm/productivity-tracker/internal/apperror"
	"github.com/enockm/productivity-tracker/internal/model"
	"github.com/enockm/productivity-tracker/internal/repository"
)

var _ repository.GoalRepository = (*DB)(nil)

const goalColumns = `id, user_id, title, description, category, priority, status,
	due_date, start_date, progress, milestones, tags, notifications,
	progress_history, last_progress_update, achievements, created_at, updated_at`

// CreateGoal inserts a goal together with its embedded collections.
func (db *DB) CreateGoal(ctx context.Context, goal *model.Goal) error {
	goal.ID = xid.New().String()
	now := time.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	docs, err := marshalGoalDocs(goal)
	if err != nil {
		return fmt.Errorf("sqlite: creating goal: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.Priority,
		goal.Status,
		goal.DueDate,
		goal.StartDate,
		goal.Progress,
		docs.milestones,
		docs.tags,
		docs.notifications,
		docs.history,
		nullableTime(goal.LastProgressUpdate),
		docs.achievements,
		goal.CreatedAt,
		goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating goal: %w", err)
	}

	return nil
}

// GetGoal retrieves one goal, scoped to its owner. A goal owned by another
// user scans as no rows and is reported as not-found.
func (db *DB) GetGoal(ctx context.Context, userID, id string) (*model.Goal, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`,
		id, userID)

	goal, err := scanGoal(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("goal", id)
		}
		return nil, fmt.Errorf("sqlite: getting goal %s: %w", id, err)
	}

	return goal, nil
}

// ListGoals returns the user's goals, filtered and sorted.
//
// The filter columns are all real columns, so filtering happens in SQL; the
// embedded JSON documents are only decoded for rows that survive the filter.
func (db *DB) ListGoals(ctx context.Context, userID string, filter repository.GoalFilter) ([]model.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ?`
	args := []any{userID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if len(filter.Statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(",?", len(filter.Statuses)-1) + `)`
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
	if filter.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, filter.Priority)
	}
	if filter.Category != "" {
		// Case-insensitive match, like the category filter has always behaved.
		query += ` AND LOWER(category) = LOWER(?)`
		args = append(args, filter.Category)
	}

	query += ` ORDER BY ` + goalSortClause(filter.Sort)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing goals: %w", err)
	}
	defer rows.Close()

	goals := make([]model.Goal, 0, limit)
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning goal row: %w", err)
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating goals: %w", err)
	}

	return goals, nil
}

// goalSortClause maps the API's sort parameter to an ORDER BY clause. Only
// known columns are mapped — the parameter never reaches SQL as raw text.
func goalSortClause(sort string) string {
	switch sort {
	case "createdAt":
		return "created_at ASC"
	case "dueDate":
		return "due_date ASC"
	case "-dueDate":
		return "due_date DESC"
	case "priority":
		return `CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END ASC`
	case "progress":
		return "progress DESC"
	default: // "-createdAt" and anything unrecognised: newest first
		return "created_at DESC"
	}
}

// UpdateGoal writes the whole aggregate back, scoped to its owner.
func (db *DB) UpdateGoal(ctx context.Context, goal *model.Goal) error {
	goal.UpdatedAt = time.Now()

	docs, err := marshalGoalDocs(goal)
	if err != nil {
		return fmt.Errorf("sqlite: updating goal %s: %w", goal.ID, err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE goals
		 SET title = ?, description = ?, category = ?, priority = ?, status = ?,
		     due_date = ?, start_date = ?, progress = ?, milestones = ?, tags = ?,
		     notifications = ?, progress_history = ?, last_progress_update = ?,
		     achievements = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.Priority,
		goal.Status,
		goal.DueDate,
		goal.StartDate,
		goal.Progress,
		docs.milestones,
		docs.tags,
		docs.notifications,
		docs.history,
		nullableTime(goal.LastProgressUpdate),
		docs.achievements,
		goal.UpdatedAt,
		goal.ID,
		goal.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating goal %s: %w", goal.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("goal", goal.ID)
	}

	return nil
}

// DeleteGoal hard-deletes a goal. Embedded collections go with the row;
// there is nothing to cascade.
func (db *DB) DeleteGoal(ctx context.Context, userID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting goal %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("goal", id)
	}

	return nil
}

// goalDocs holds the serialized embedded collections of one goal row.
type goalDocs struct {
	milestones    string
	tags          string
	notifications string
	history       string
	achievements  string
}

func marshalGoalDocs(goal *model.Goal) (*goalDocs, error) {
	var (
		docs goalDocs
		err  error
	)
	if docs.milestones, err = marshalJSON(emptySlice(goal.Milestones)); err != nil {
		return nil, err
	}
	if docs.tags, err = marshalJSON(emptyStrings(goal.Tags)); err != nil {
		return nil, err
	}
	if docs.notifications, err = marshalJSON(goal.Notifications); err != nil {
		return nil, err
	}
	if docs.history, err = marshalJSON(emptyHistory(goal.ProgressHistory)); err != nil {
		return nil, err
	}
	if docs.achievements, err = marshalJSON(emptyAchievements(goal.Achievements)); err != nil {
		return nil, err
	}
	return &docs, nil
}

func scanGoal(s scanner) (*model.Goal, error) {
	var (
		g              model.Goal
		milestones     string
		tags           string
		notifications  string
		history        string
		achievements   string
		lastProgressAt sql.NullTime
	)
	err := s.Scan(
		&g.ID,
		&g.UserID,
		&g.Title,
		&g.Description,
		&g.Category,
		&g.Priority,
		&g.Status,
		&g.DueDate,
		&g.StartDate,
		&g.Progress,
		&milestones,
		&tags,
		&notifications,
		&history,
		&lastProgressAt,
		&achievements,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastProgressAt.Valid {
		g.LastProgressUpdate = lastProgressAt.Time
	}
	if err := unmarshalJSON(milestones, &g.Milestones); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(tags, &g.Tags); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(notifications, &g.Notifications); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(history, &g.ProgressHistory); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(achievements, &g.Achievements); err != nil {
		return nil, err
	}

	return &g, nil
}

// nullableTime stores the zero time as NULL instead of Go's year-one value.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// The empty* helpers normalise nil slices to empty ones so JSON columns and
// API responses always show [] rather than null.
func emptySlice(in []model.Milestone) []model.Milestone {
	if in == nil {
		return []model.Milestone{}
	}
	return in
}

func emptyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func emptyHistory(in []model.ProgressEntry) []model.ProgressEntry {
	if in == nil {
		return []model.ProgressEntry{}
	}
	return in
}

func emptyAchievements(in []model.Achievement) []model.Achievement {
	if in == nil {
		return []model.Achievement{}
	}
	return in
}
