package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/enockm/productivity-tracker/internal/apperror"
	"github.com/enockm/productivity-tracker/internal/auth"
	"github.com/enockm/productivity-tracker/internal/model"
	"github.com/enockm/productivity-tracker/internal/repository"
)

// AuthService handles registration, login, and federated sign-in. It owns
// the account-linking rules: a Google sign-in first matches on the Google
// subject, then falls back to linking by email, and only then creates a
// fresh account.
type AuthService struct {
	repo      repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	google    *auth.GoogleProvider
	logger    *slog.Logger

	now func() time.Time
}

func NewAuthService(
	repo repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	google *auth.GoogleProvider,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		repo:      repo,
		tokens:    tokens,
		passwords: passwords,
		google:    google,
		logger:    logger,
		now:       time.Now,
	}
}

type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is what every successful sign-in returns: the user plus a
// signed bearer token.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates a password-based account. The email must not already be
// in use; the repository enforces that with a unique index.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, translateValidation(err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	user := &model.User{
		Email:        in.Email,
		PasswordHash: hash,
		DisplayName:  in.DisplayName,
		Settings:     model.DefaultUserSettings(),
		LastLogin:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies email + password. Wrong email and wrong password produce
// the same unauthorized error so the response does not reveal which one
// exists.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, translateValidation(err)
	}

	user, err := s.repo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, err
	}

	if !user.HasPassword() {
		// Google-only account; there is no password to check.
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := s.touchLastLogin(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// LoginWithGoogle verifies a Google ID token and signs the user in,
// creating or linking an account as needed.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (*AuthResult, error) {
	if !s.google.Available() {
		return nil, apperror.Upstream("google sign-in is not configured")
	}

	gu, err := s.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid google token")
	}

	user, err := s.resolveGoogleUser(ctx, gu)
	if err != nil {
		return nil, err
	}

	if err := s.touchLastLogin(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	s.logger.Info("google sign-in", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// resolveGoogleUser finds or creates the local account for a verified Google
// identity. Match order: Google subject, then email (linking the subject to
// an existing password account), then a brand-new account.
func (s *AuthService) resolveGoogleUser(ctx context.Context, gu *auth.GoogleUser) (*model.User, error) {
	user, err := s.repo.GetUserByGoogleID(ctx, gu.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	user, err = s.repo.GetUserByEmail(ctx, gu.Email)
	if err == nil {
		// Existing password account with the same email: link it.
		user.GoogleID = gu.Subject
		if user.DisplayName == "" {
			user.DisplayName = gu.Name
		}
		if user.AvatarURL == "" {
			user.AvatarURL = gu.Picture
		}
		if uerr := s.repo.UpdateUser(ctx, user); uerr != nil {
			return nil, fmt.Errorf("linking google account: %w", uerr)
		}
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	user = &model.User{
		Email:       gu.Email,
		GoogleID:    gu.Subject,
		DisplayName: gu.Name,
		AvatarURL:   gu.Picture,
		Settings:    model.DefaultUserSettings(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Profile returns the authenticated user's record.
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	return s.repo.GetUser(ctx, userID)
}

type UpdateProfileInput struct {
	DisplayName *string            `json:"displayName" validate:"omitempty,max=100"`
	Settings    *UserSettingsInput `json:"settings"`
}

type UserSettingsInput struct {
	Theme              *string `json:"theme" validate:"omitempty,oneof=light dark"`
	EmailNotifications *bool   `json:"emailNotifications"`
	DailyReminders     *bool   `json:"dailyReminders"`
	WeeklyReports      *bool   `json:"weeklyReports"`
}

// UpdateProfile patches display name and notification settings.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, translateValidation(err)
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.DisplayName != nil {
		user.DisplayName = *in.DisplayName
	}
	if in.Settings != nil {
		if in.Settings.Theme != nil {
			user.Settings.Theme = *in.Settings.Theme
		}
		if in.Settings.EmailNotifications != nil {
			user.Settings.EmailNotifications = *in.Settings.EmailNotifications
		}
		if in.Settings.DailyReminders != nil {
			user.Settings.DailyReminders = *in.Settings.DailyReminders
		}
		if in.Settings.WeeklyReports != nil {
			user.Settings.WeeklyReports = *in.Settings.WeeklyReports
		}
	}
	user.UpdatedAt = s.now()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateAvatar stores the public URL of an uploaded avatar image.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID, avatarURL string) (*model.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.AvatarURL = avatarURL
	user.UpdatedAt = s.now()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) touchLastLogin(ctx context.Context, user *model.User) error {
	user.LastLogin = s.now()
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("recording last login: %w", err)
	}
	return nil
}
