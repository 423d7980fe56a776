package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewUnauthenticated signals a missing or unresolvable session. The redirect
// target is the role-neutral sign-in page.
func NewUnauthenticated(message string) error {
	return NewDomainError("UNAUTHENTICATED", message, http.StatusUnauthorized, map[string]any{
		"redirect": "/login",
	})
}

// NewWrongRole signals an authenticated principal reaching a route outside its
// role. The redirect points at the principal's own dashboard.
func NewWrongRole(redirect string) error {
	return NewDomainError("WRONG_ROLE", "you don't have permission to access this page", http.StatusForbidden, map[string]any{
		"redirect": redirect,
	})
}

// NewBackendUnavailable wraps an infrastructure failure on a read path.
// Callers surface it as a retryable notice and keep their last-known data.
func NewBackendUnavailable(err error) error {
	return &DomainError{
		Code:       "BACKEND_UNAVAILABLE",
		Message:    "backend unavailable, retry later",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewTransitionWriteFailed wraps a failed concern status write. The transition
// did not happen; the caller must re-trigger it.
func NewTransitionWriteFailed(err error) error {
	return &DomainError{
		Code:       "TRANSITION_WRITE_FAILED",
		Message:    "failed to update concern status",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewCommentWriteFailed wraps a failed comment insert after a successful
// status write. Non-fatal: the transition stands, the comment is lost.
func NewCommentWriteFailed(err error) error {
	return &DomainError{
		Code:       "COMMENT_WRITE_FAILED",
		Message:    "status updated but comment was not saved",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
