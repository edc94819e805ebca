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

// Compile-time check that *DB satisfies the user repository.
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, password_hash, google_id, display_name, avatar_url,
	settings, last_login, created_at, updated_at`

// CreateUser inserts a new account. The UNIQUE constraints on email and
// google_id surface duplicate registrations as conflict errors.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.LastLogin.IsZero() {
		user.LastLogin = now
	}

	settings, err := marshalJSON(user.Settings)
	if err != nil {
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.DisplayName,
		user.AvatarURL,
		settings,
		user.LastLogin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if cerr := uniqueViolation(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetUser retrieves an account by internal ID.
func (db *DB) GetUser(ctx context.Context, id string) (*model.User, error) {
	return db.getUserWhere(ctx, "id = ?", id, id)
}

// GetUserByEmail retrieves an account by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUserWhere(ctx, "email = ?", email, email)
}

// GetUserByGoogleID retrieves an account by its linked Google subject ID.
func (db *DB) GetUserByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return db.getUserWhere(ctx, "google_id = ? AND google_id != ''", googleID, googleID)
}

func (db *DB) getUserWhere(ctx context.Context, where, notFoundID string, args ...any) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, args...)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", notFoundID)
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}
	return user, nil
}

// UpdateUser persists every mutable field of the account.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	settings, err := marshalJSON(user.Settings)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, password_hash = ?, google_id = ?, display_name = ?,
		     avatar_url = ?, settings = ?, last_login = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.DisplayName,
		user.AvatarURL,
		settings,
		user.LastLogin,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if cerr := uniqueViolation(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// ListUsers returns every account. The reminder scheduler is the only caller;
// it iterates users sequentially, so no pagination is needed here.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u         model.User
		settings  string
		lastLogin sql.NullTime
	)
	err := s.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.GoogleID,
		&u.DisplayName,
		&u.AvatarURL,
		&settings,
		&lastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	if err := unmarshalJSON(settings, &u.Settings); err != nil {
		return nil, err
	}
	return &u, nil
}

// uniqueViolation translates SQLite's UNIQUE constraint error into the
// matching conflict error, or returns nil if err is something else. The
// pure-Go driver wraps it in its own error type, so string matching on the
// stable constraint message is the pragmatic check.
func uniqueViolation(err error) error {
	if err == nil || !strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return nil
	}
	if strings.Contains(err.Error(), "google_id") {
		return apperror.Conflict("this google account is already linked to another user")
	}
	return apperror.Conflict("an account with this email already exists")
}
