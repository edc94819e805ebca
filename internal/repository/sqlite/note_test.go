package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/enockm/productivity-tracker/internal/apperror"
	"github.com/enockm/productivity-tracker/internal/model"
)

func createTestNote(t *testing.T, db *DB, userID, title, category string) *model.Note {
	t.Helper()
	note := &model.Note{UserID: userID, Title: title, Category: category, Content: "body"}
	if err := db.CreateNote(context.Background(), note); err != nil {
		t.Fatalf("failed to create test note: %v", err)
	}
	return note
}

func TestListNotes_CategoryFilter(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "notes@example.com")

	createTestNote(t, db, user.ID, "standup", "work")
	createTestNote(t, db, user.ID, "groceries", "personal")

	all, err := db.ListNotes(context.Background(), user.ID, "")
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("unfiltered list returned %d notes, want 2", len(all))
	}

	work, err := db.ListNotes(context.Background(), user.ID, "work")
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(work) != 1 || work[0].Title != "standup" {
		t.Errorf("category filter returned %d notes", len(work))
	}
}

func TestNote_UpdateAndOwnership(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "nowner@example.com")
	other := createTestUser(t, db, "nother@example.com")

	note := createTestNote(t, db, owner.ID, "draft", "work")
	note.Content = "revised"
	if err := db.UpdateNote(context.Background(), note); err != nil {
		t.Fatalf("UpdateNote() error = %v", err)
	}

	got, err := db.GetNote(context.Background(), owner.ID, note.ID)
	if err != nil {
		t.Fatalf("GetNote() error = %v", err)
	}
	if got.Content != "revised" {
		t.Errorf("content = %s, want revised", got.Content)
	}

	if _, err := db.GetNote(context.Background(), other.ID, note.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetNote() as other user error = %v, want ErrNotFound", err)
	}
}
