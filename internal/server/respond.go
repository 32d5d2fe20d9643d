// ABOUTME: JSON response helpers and chat error to HTTP status mapping
// ABOUTME: Every response body on this API is JSON, including errors

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rowanlabs/rowan/internal/chat"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeChatError maps the chat error taxonomy to HTTP statuses. The sentinel
// text is the generic client-facing error; backend and persistence failures
// additionally carry the underlying detail so callers can diagnose them.
func (s *Server) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrValidation):
		writeError(w, http.StatusBadRequest, chat.ErrValidation.Error())
	case errors.Is(err, chat.ErrNotFound):
		writeError(w, http.StatusNotFound, chat.ErrNotFound.Error())
	case errors.Is(err, chat.ErrBackend):
		s.logger.Error("chat backend error", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:  chat.ErrBackend.Error(),
			Detail: errorDetail(err, chat.ErrBackend),
		})
	case errors.Is(err, chat.ErrPersistence):
		s.logger.Error("chat persistence error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:  chat.ErrPersistence.Error(),
			Detail: errorDetail(err, chat.ErrPersistence),
		})
	default:
		s.logger.Error("chat internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// errorDetail strips the sentinel prefix from a wrapped chat error, leaving
// just the underlying cause for the response's detail field.
func errorDetail(err, sentinel error) string {
	detail := strings.TrimPrefix(err.Error(), sentinel.Error())
	return strings.TrimPrefix(detail, ": ")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
