package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Base sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrUnavailable  = errors.New("temporarily unavailable")
)

// Named error kinds. Each wraps one of the base sentinels above, so callers
// can match either the specific kind or its category with errors.Is.
var (
	ErrDuplicateEmail     = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrDuplicateUsername  = fmt.Errorf("username already taken: %w", ErrConflict)
	ErrCodeExpired        = fmt.Errorf("verification code expired: %w", ErrUnauthorized)
	ErrCodeMismatch       = fmt.Errorf("verification code incorrect: %w", ErrUnauthorized)
	ErrCodeNotRequested   = fmt.Errorf("no verification code was requested: %w", ErrUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("email or password incorrect: %w", ErrUnauthorized)
	ErrNotificationFailed = fmt.Errorf("could not send notification: %w", ErrUnavailable)
	ErrStorageUnavailable = fmt.Errorf("storage unavailable: %w", ErrUnavailable)
)

// FieldErrors aggregates per-field validation failures. The credential
// validator collects every applicable failure instead of stopping at the
// first, except where the check ordering mandates a short-circuit.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Has reports whether the given field already carries an error.
func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

func (fe FieldErrors) Error() string {
	var parts []string
	for field, msgs := range fe {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
	}
	return strings.Join(parts, ", ")
}

// Unwrap lets errors.Is(fe, ErrBadRequest) hold for any field error set.
func (fe FieldErrors) Unwrap() error { return ErrBadRequest }
