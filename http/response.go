package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/r2gate"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the response for err. Authentication failures get their
// own status codes and fixed messages; malformed input gets 400; everything
// else is a 500 carrying the error text.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, r2gate.ErrMissingSession):
		WriteError(w, http.StatusUnauthorized, "Missing session")
	case errors.Is(err, r2gate.ErrInvalidSession):
		WriteError(w, http.StatusForbidden, "Invalid session")
	case errors.Is(err, r2gate.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "Invalid username or token")
	case errors.Is(err, r2gate.ErrInvalidInput):
		slog.Warn("bad request", "error", err)
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
