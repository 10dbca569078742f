package services

import (
	"errors"
	"fmt"
)

// ===== SENTINEL ERRORS =====

var (
	ErrSurveyNotFound   = errors.New("survey not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrResponseNotFound = errors.New("response not found")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("session is invalid or expired")
	ErrAccountDisabled    = errors.New("account is disabled")

	ErrSurveyNotAcceptingResponses = errors.New("survey is not accepting responses")

	ErrEmailExists      = errors.New("EMAIL_EXISTS")
	ErrInvalidCode      = errors.New("INVALID_CODE")
	ErrCodeExpired      = errors.New("EXPIRED")
	ErrEmailNotVerified = errors.New("email has not been verified")

	ErrSelfDelete = errors.New("cannot delete your own account")
)

// ===== PERMISSION ERRORS =====

// PermissionError describes a denied operation.
type PermissionError struct {
	UserID     string
	ResourceID string
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %s: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// ===== RATE LIMIT ERRORS =====

// RateLimitError carries the seconds a client must wait before retrying.
type RateLimitError struct {
	Wait int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("RATE_LIMIT: retry in %d seconds", e.Wait)
}

func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

// ===== CONFLICT ERRORS =====

// ConflictError reports a state conflict, such as publishing an already
// published survey.
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}

func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{Resource: resource, Message: message}
}

func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
