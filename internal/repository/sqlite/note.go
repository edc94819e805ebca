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

var _ repository.NoteRepository = (*DB)(nil)

const noteColumns = `id, user_id, title, content, category, created_at, updated_at`

func (db *DB) CreateNote(ctx context.Context, note *model.Note) error {
	note.ID = xid.New().String()
	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.UserID,
		note.Title,
		note.Content,
		note.Category,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating note: %w", err)
	}

	return nil
}

func (db *DB) GetNote(ctx context.Context, userID, id string) (*model.Note, error) {
	var n model.Note
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Category, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("note", id)
		}
		return nil, fmt.Errorf("sqlite: getting note %s: %w", id, err)
	}

	return &n, nil
}

func (db *DB) ListNotes(ctx context.Context, userID, category string) ([]model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE user_id = ?`
	args := []any{userID}
	if category != "" {
		query += ` AND LOWER(category) = LOWER(?)`
		args = append(args, category)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Category, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning note row: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notes: %w", err)
	}

	return notes, nil
}

func (db *DB) UpdateNote(ctx context.Context, note *model.Note) error {
	note.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE notes
		 SET title = ?, content = ?, category = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		note.Title,
		note.Content,
		note.Category,
		note.UpdatedAt,
		note.ID,
		note.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating note %s: %w", note.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("note", note.ID)
	}

	return nil
}

func (db *DB) DeleteNote(ctx context.Context, userID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting note %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("note", id)
	}

	return nil
}
