package client

import (
	"errors"
	"fmt"

	"trailmate/backend/internal/onboarding"
)

var (
	ErrNotSignedIn     = errors.New("not signed in")
	ErrUnknownActivity = errors.New("activity is not loaded")
	ErrActionInFlight  = errors.New("an action is already running for this activity")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// ActionError is a failed membership action, ready to show as a notice.
type ActionError struct {
	Title   string
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return e.Title + ": " + e.Message
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// MessageOr returns the message carried by err, or fallback when err has none.
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var verr *onboarding.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return fallback
}
