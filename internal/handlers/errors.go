package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/assettrack/internal/repo"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// ErrorResponse defines the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// writeRepoError maps the repo error taxonomy to HTTP statuses:
// ValidationError 400, NotFoundError 404, ConflictError 409, anything else
// (storage unavailable) 500 with the detail kept out of the response.
func writeRepoError(w http.ResponseWriter, err error) {
	var verr *repo.ValidationError
	if errors.As(err, &verr) {
		JSONError(w, verr.Error(), http.StatusBadRequest)
		return
	}
	var nerr *repo.NotFoundError
	if errors.As(err, &nerr) {
		JSONError(w, nerr.Error(), http.StatusNotFound)
		return
	}
	var cerr *repo.ConflictError
	if errors.As(err, &cerr) {
		JSONError(w, cerr.Error(), http.StatusConflict)
		return
	}
	slog.Error("storage error", "err", err)
	JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
}
