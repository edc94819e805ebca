package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"

	"github.com/enockm/productivity-tracker/internal/auth"
	"github.com/enockm/productivity-tracker/internal/service"
)

// AuthHandler exposes registration, login, Google sign-in, and profile
// management.
//
// DEPENDENCY CHAIN:
//   - service.AuthService → all the account rules (hashing, linking, tokens)
//   - uploadDir           → where avatar uploads land; served at /uploads/*
type AuthHandler struct {
	auth      *service.AuthService
	uploadDir string
	logger    *slog.Logger
}

func NewAuthHandler(authSvc *service.AuthService, uploadDir string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      authSvc,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// HandleRegister creates a password-based account and returns the user plus
// a bearer token.
//
// HTTP: POST /api/auth/register
// BODY: {"email": "...", "password": "...", "displayName": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// HandleLogin verifies credentials and returns the user plus a bearer token.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.auth.Login(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleVerifyToken exchanges a Google ID token for a local session.
//
// HTTP: POST /api/auth/verify-token
// BODY: {"idToken": "..."}
//
// The SPA completes the Google sign-in flow client-side and posts the
// resulting ID token here; the server verifies it with Google and creates
// or links the local account.
func (h *AuthHandler) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IDToken string `json:"idToken"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.IDToken == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "idToken is required",
		})
		return
	}

	result, err := h.auth.LoginWithGoogle(r.Context(), in.IDToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/auth/me
// Auth: required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateSettings patches display name and notification settings.
//
// HTTP: PATCH /api/auth/settings
func (h *AuthHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var in service.UpdateProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Avatar uploads are capped well below the generic body limit; a profile
// photo has no business being larger than this.
const maxAvatarSize = 5 << 20

// HandleUploadPhoto accepts a multipart avatar upload, stores it under the
// upload directory, and records its public URL on the profile.
//
// HTTP: POST /api/auth/upload-photo
// BODY: multipart/form-data with a "photo" file field
func (h *AuthHandler) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize)
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "a photo file field is required",
		})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "unsupported image type",
		})
		return
	}

	// A generated name prevents path traversal and collisions; the original
	// filename is never trusted.
	name := xid.New().String() + ext
	dst, err := os.Create(filepath.Join(h.uploadDir, name))
	if err != nil {
		h.logger.Error("avatar upload: creating file", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		h.logger.Error("avatar upload: writing file", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	user, err := h.auth.UpdateAvatar(r.Context(), userID, fmt.Sprintf("/uploads/%s", name))
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("avatar uploaded", slog.String("user_id", userID), slog.String("file", name))
	writeJSON(w, http.StatusOK, user)
}
