package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// writeJSON writes v wrapped in an Envelope with the given status code.
func writeJSON(w http.ResponseWriter, status int, env Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// success writes a 200 response.
func success(w http.ResponseWriter, data any, logger *slog.Logger) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data}, logger)
}

// fail writes an error response.
func fail(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	writeJSON(w, status, Envelope{Success: false, Error: message}, logger)
}

func badRequest(w http.ResponseWriter, message string, logger *slog.Logger) {
	fail(w, http.StatusBadRequest, message, logger)
}

func notFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	fail(w, http.StatusNotFound, message, logger)
}

func internalError(w http.ResponseWriter, logger *slog.Logger) {
	fail(w, http.StatusInternalServerError, "internal server error", logger)
}
