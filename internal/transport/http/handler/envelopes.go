package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/donkcry/B--Blog/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FieldErrorsEnvelope carries the aggregated per-field validation failures.
type FieldErrorsEnvelope struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

// AuthEnvelope wraps login/register responses.
type AuthEnvelope struct {
	Bearer       string          `json:"bearer,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Session      *domain.Session `json:"session,omitempty"`
	Account      *domain.Account `json:"account,omitempty"`
	Message      string          `json:"message,omitempty"`
}

// PageEnvelope wraps cursor-paginated list responses.
type PageEnvelope struct {
	Data       interface{} `json:"data"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinels onto HTTP status codes. Field-error sets
// become 422 with the per-field detail; everything else collapses to the
// category's status with the wrapped message.
func httpError(w http.ResponseWriter, err error) {
	var fe domain.FieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusUnprocessableEntity, FieldErrorsEnvelope{
			Error:  "validation failed",
			Fields: fe,
		})
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
