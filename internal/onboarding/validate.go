package onboarding

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"trailmate/backend/internal/profile"
)

var (
	ErrUnknownStep       = errors.New("unknown onboarding step")
	ErrAlreadyCompleted  = errors.New("onboarding is already completed")
	ErrStepMismatch      = errors.New("submitted step does not match the current onboarding step")
	ErrEmailNotConfirmed = errors.New("email address has not been confirmed yet")
)

const (
	minUsernameLength = 3
	minBioLength      = 10
)

// Fields is the payload a wizard screen submits. Each step reads only its own fields.
type Fields struct {
	FullName  string `json:"full_name"`
	Username  string `json:"username"`
	IsTeacher *bool  `json:"is_teacher"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Bio       string `json:"bio"`
	PushOptIn *bool  `json:"push_opt_in"`

	// EmailConfirmedAt is filled from the account, never from client input.
	EmailConfirmedAt *time.Time `json:"-"`
}

// ValidationError is a local pre-flight failure. Nothing was written.
type ValidationError struct {
	Step    Step
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(step Step, message string) error {
	return &ValidationError{Step: step, Message: message}
}

// Validate checks the fields required by step.
func Validate(step Step, f Fields) error {
	switch step {
	case StepEmailVerification:
		if f.EmailConfirmedAt == nil {
			return ErrEmailNotConfirmed
		}
	case StepUserType:
		if f.IsTeacher == nil {
			return invalid(step, "Please choose how you will use the app")
		}
	case StepBasicInfo:
		fullName, username := strings.TrimSpace(f.FullName), strings.TrimSpace(f.Username)
		if fullName == "" || username == "" {
			return invalid(step, "Please fill in all fields")
		}
		if utf8.RuneCountInString(username) < minUsernameLength {
			return invalid(step, "Username must be at least 3 characters long")
		}
	case StepLocation:
		if strings.TrimSpace(f.City) == "" || strings.TrimSpace(f.Country) == "" {
			return invalid(step, "Please fill in all fields")
		}
	case StepBio:
		bio := strings.TrimSpace(f.Bio)
		if bio == "" {
			return invalid(step, "Please enter your bio")
		}
		if utf8.RuneCountInString(bio) < minBioLength {
			return invalid(step, "Bio must be at least 10 characters long")
		}
	case StepNotifications:
	case StepCompleted:
		return ErrAlreadyCompleted
	default:
		return ErrUnknownStep
	}
	return nil
}

// ErrorKind groups failures the way they are presented to the user.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindValidation
	KindConflict
)

// Classify reports how err should be surfaced.
func Classify(err error) ErrorKind {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, ErrEmailNotConfirmed), errors.Is(err, ErrUnknownStep):
		return KindValidation
	case errors.Is(err, profile.ErrUsernameTaken), errors.Is(err, ErrStepMismatch), errors.Is(err, ErrAlreadyCompleted):
		return KindConflict
	default:
		return KindGeneric
	}
}
