package sqlite

import (
	"context"
	"testing"

	"github.com/enockm/productivity-tracker/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" creates a fresh database that lives only for the test — fast,
// isolated, destroyed when the connection closes. Every test builds its own.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts an account. Every other table references users(id)
// with foreign keys on, so entity tests need one of these first.
func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:    email,
		Settings: model.DefaultUserSettings(),
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}
