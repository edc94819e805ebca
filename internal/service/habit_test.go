package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/enockm/productivity-tracker/internal/apperror"
)

func newTestHabitService(t *testing.T) (*HabitService, time.Time) {
	t.Helper()
	frozen := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	svc := NewHabitService(newMockHabitRepo(), testLogger())
	svc.now = func() time.Time { return frozen }
	return svc, frozen
}

// =========================================================================
// DAILY LOGS
// =========================================================================

func TestHabitAddLog_OncePerDay(t *testing.T) {
	svc, _ := newTestHabitService(t)
	ctx := context.Background()

	habit, err := svc.Create(ctx, "u1", CreateHabitInput{Name: "meditate"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	habit, err = svc.AddLog(ctx, "u1", habit.ID, time.Time{})
	if err != nil {
		t.Fatalf("AddLog() error = %v", err)
	}
	if len(habit.Logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(habit.Logs))
	}
	if habit.Logs[0].ID == "" {
		t.Error("log was not assigned an ID")
	}

	// Same day — even a different hour — is a conflict.
	if _, err := svc.AddLog(ctx, "u1", habit.ID, time.Time{}); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("AddLog() twice on one day error = %v, want ErrConflict", err)
	}
}

func TestHabitAddLog_BackfillsPastDay(t *testing.T) {
	svc, frozen := newTestHabitService(t)
	ctx := context.Background()

	habit, _ := svc.Create(ctx, "u1", CreateHabitInput{Name: "stretch"})

	yesterday := frozen.AddDate(0, 0, -1)
	habit, err := svc.AddLog(ctx, "u1", habit.ID, yesterday)
	if err != nil {
		t.Fatalf("AddLog() for a past day error = %v", err)
	}

	// The log date is truncated to midnight.
	want := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	if !habit.Logs[0].Date.Equal(want) {
		t.Errorf("log date = %v, want %v", habit.Logs[0].Date, want)
	}

	// Backfilling does not block today's log.
	if _, err := svc.AddLog(ctx, "u1", habit.ID, time.Time{}); err != nil {
		t.Errorf("AddLog() for today after a backfill error = %v", err)
	}
}

func TestHabitDeleteLog(t *testing.T) {
	svc, _ := newTestHabitService(t)
	ctx := context.Background()

	habit, _ := svc.Create(ctx, "u1", CreateHabitInput{Name: "journal"})
	habit, err := svc.AddLog(ctx, "u1", habit.ID, time.Time{})
	if err != nil {
		t.Fatalf("AddLog() error = %v", err)
	}
	logID := habit.Logs[0].ID

	habit, err = svc.DeleteLog(ctx, "u1", habit.ID, logID)
	if err != nil {
		t.Fatalf("DeleteLog() error = %v", err)
	}
	if len(habit.Logs) != 0 {
		t.Errorf("got %d logs after delete, want 0", len(habit.Logs))
	}

	// Deleting a day's log makes that day loggable again.
	if _, err := svc.AddLog(ctx, "u1", habit.ID, time.Time{}); err != nil {
		t.Errorf("AddLog() after deleting the day's log error = %v", err)
	}
}

func TestHabitDeleteLog_UnknownID(t *testing.T) {
	svc, _ := newTestHabitService(t)
	ctx := context.Background()

	habit, _ := svc.Create(ctx, "u1", CreateHabitInput{Name: "read"})

	if _, err := svc.DeleteLog(ctx, "u1", habit.ID, "no-such-log"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteLog() with unknown log ID error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// VALIDATION
// =========================================================================

func TestHabitCreate_RequiresName(t *testing.T) {
	svc, _ := newTestHabitService(t)

	if _, err := svc.Create(context.Background(), "u1", CreateHabitInput{}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() without name error = %v, want ErrValidation", err)
	}
}
