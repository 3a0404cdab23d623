package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/veriseal/veriseal"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the appropriate error response based on error type.
// Anything unrecognized degrades to a generic 500 so no internal cause or
// stack trace ever reaches the client.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	if errors.Is(err, veriseal.ErrNoFile) {
		WriteError(w, http.StatusBadRequest, "no_file", "No file provided")
		return
	}

	if errors.Is(err, veriseal.ErrStoreDisabled) {
		WriteError(w, http.StatusInternalServerError, "store_disabled", "Remote storage is not configured")
		return
	}

	if errors.Is(err, veriseal.ErrUploadFailed) {
		WriteError(w, http.StatusBadGateway, "upload_failed", "Upload to remote storage failed")
		return
	}

	if errors.Is(err, veriseal.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	if errors.Is(err, ErrUnauthorized) {
		WriteError(w, http.StatusForbidden, "unauthorized", "Invalid or missing key")
		return
	}

	// Default internal error
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
