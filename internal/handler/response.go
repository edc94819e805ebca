package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//   {"error": "not_found", "message": "goal not found with id abc123"}
//
// Validation errors additionally carry the failing fields:
//   {"error": "validation_error", "message": "...", "fields": [{"field": "title", ...}]}
//
// The frontend always knows what fields to expect, regardless of whether
// it's a 400, 404, or 500.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/enockm/productivity-tracker/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string                `json:"error"`            // machine-readable type, e.g. "not_found"
	Message string                `json:"message"`          // human-readable description
	Fields  []apperror.FieldError `json:"fields,omitempty"` // per-field detail on validation errors
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS: headers and status code must be set before the body.
// Once Encode writes, the headers are sent and any later changes are
// silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code.
//
// This is where domain errors from the service layer get translated to
// HTTP; the service layer itself never knows about status codes.
// errors.Is walks the whole wrap chain, so a service error like
// fmt.Errorf("updating goal: %w", apperror.NotFound(...)) still maps to 404.
//
// Records not owned by the caller surface as ErrNotFound from the
// repository, so ownership violations map to 404 here without any special
// casing — existence is never leaked as a 403.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrUpstream):
			status = http.StatusBadGateway
			errorType = "upstream_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		})
		return
	}

	// Unknown error: generic 500. The raw message might contain SQL or file
	// paths, so it never reaches the client.
	slog.Error("unhandled error in request", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// maxBodySize caps request bodies at 1 MB. Notes are the largest payload
// and top out well under this.
const maxBodySize = 1 << 20

// decodeBodyOptional decodes a JSON body into dst but treats an empty body
// as success, for endpoints where the payload is entirely optional.
func decodeBodyOptional(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// decodeJSON reads the request body into dst, rejecting oversized or
// malformed payloads with a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "request body is required",
			})
			return false
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return false
	}
	return true
}
