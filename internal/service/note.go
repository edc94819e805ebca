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

// NoteService is plain CRUD over notes. It exists so the handler layer never
// talks to a repository directly, same as every other entity.
type NoteService struct {
	repo   repository.NoteRepository
	logger *slog.Logger

	now func() time.Time
}

func NewNoteService(repo repository.NoteRepository, logger *slog.Logger) *NoteService {
	return &NoteService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

type CreateNoteInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"max=10000"`
	Category string `json:"category" validate:"max=50"`
}

type UpdateNoteInput struct {
	Title    *string `json:"title" validate:"omitempty,max=200"`
	Content  *string `json:"content" validate:"omitempty,max=10000"`
	Category *string `json:"category" validate:"omitempty,max=50"`
}

func (s *NoteService) Create(ctx context.Context, userID string, in CreateNoteInput) (*model.Note, error) {
	if err := validate.Struct(in); err != nil {
		return nil, translateValidation(err)
	}

	now := s.now()
	note := &model.Note{
		UserID:    userID,
		Title:     in.Title,
		Content:   in.Content,
		Category:  in.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}
	s.logger.Info("note created", "note_id", note.ID, "user_id", userID)
	return note, nil
}

func (s *NoteService) Get(ctx context.Context, userID, noteID string) (*model.Note, error) {
	return s.repo.GetNote(ctx, userID, noteID)
}

// List returns the user's notes, newest edits first, optionally filtered by
// category (case-insensitive).
func (s *NoteService) List(ctx context.Context, userID, category string) ([]model.Note, error) {
	return s.repo.ListNotes(ctx, userID, category)
}

func (s *NoteService) Update(ctx context.Context, userID, noteID string, in UpdateNoteInput) (*model.Note, error) {
	if err := validate.Struct(in); err != nil {
		return nil, translateValidation(err)
	}

	note, err := s.repo.GetNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, apperror.ValidationFailed("title", "title cannot be empty")
		}
		note.Title = *in.Title
	}
	if in.Content != nil {
		note.Content = *in.Content
	}
	if in.Category != nil {
		note.Category = *in.Category
	}
	note.UpdatedAt = s.now()

	if err := s.repo.UpdateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("updating note: %w", err)
	}
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	return s.repo.DeleteNote(ctx, userID, noteID)
}
