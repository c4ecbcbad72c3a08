package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"trailmate/backend/internal/models"
	"trailmate/backend/internal/observability"
	"trailmate/backend/internal/profile"
)

// Store is the persistence used by Service.
type Store interface {
	FindProfile(ctx context.Context, id string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, id string, columns map[string]any) (*models.Profile, error)
	FindAccountByID(ctx context.Context, id string) (*models.User, error)
	UpsertSettings(ctx context.Context, settings models.UserSettings) error
}

// Service persists wizard progress.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Current returns the step the user should be routed to.
func (s *Service) Current(ctx context.Context, userID string) (Step, error) {
	p, err := s.store.FindProfile(ctx, userID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return StepEmailVerification, nil
	}
	if err != nil {
		return "", fmt.Errorf("fetch profile: %w", err)
	}
	return Resolve(p.OnboardingStep), nil
}

// Submit validates fields for step and, if step is the user's current step,
// persists the transition to the next one. On any error the recorded step is unchanged.
func (s *Service) Submit(ctx context.Context, userID string, step Step, fields Fields) (Step, error) {
	if !step.Valid() {
		return "", ErrUnknownStep
	}
	if step == StepEmailVerification {
		verified, next, err := s.CheckVerified(ctx, userID)
		if err != nil {
			return next, err
		}
		if !verified {
			return next, ErrEmailNotConfirmed
		}
		return next, nil
	}

	fields.EmailConfirmedAt = nil
	if err := Validate(step, fields); err != nil {
		return step, err
	}

	current, err := s.Current(ctx, userID)
	if err != nil {
		return "", err
	}
	if current != step {
		if current.Terminal() {
			return current, ErrAlreadyCompleted
		}
		return current, ErrStepMismatch
	}

	_, update, err := Advance(current, fields, s.now())
	if err != nil {
		return current, err
	}
	return s.apply(ctx, userID, current, update)
}

// CheckVerified reads the account's confirmation timestamp and, when it is
// set and the user is still on email verification, advances to user type.
func (s *Service) CheckVerified(ctx context.Context, userID string) (bool, Step, error) {
	account, err := s.store.FindAccountByID(ctx, userID)
	if err != nil {
		return false, "", fmt.Errorf("fetch account: %w", err)
	}
	current, err := s.Current(ctx, userID)
	if err != nil {
		return false, "", err
	}
	if !account.Confirmed() {
		return false, current, nil
	}
	if current != StepEmailVerification {
		return true, current, nil
	}

	_, update, err := Advance(current, Fields{EmailConfirmedAt: account.EmailConfirmedAt}, s.now())
	if err != nil {
		return true, current, err
	}
	next, err := s.apply(ctx, userID, current, update)
	return true, next, err
}

func (s *Service) apply(ctx context.Context, userID string, from Step, u Update) (Step, error) {
	if _, err := s.store.UpsertProfile(ctx, userID, u.Columns()); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return from, profile.ErrUsernameTaken
		}
		return from, fmt.Errorf("persist step %s: %w", u.Step, err)
	}
	observability.RecordOnboardingTransition(string(from), string(u.Step))

	if u.Step == StepCompleted {
		settings := models.UserSettings{UserID: userID, PushOptIn: u.PushOptIn != nil && *u.PushOptIn}
		if err := s.store.UpsertSettings(ctx, settings); err != nil {
			log.Printf("Failed to save notification settings for user %s: %v", userID, err)
			observability.RecordBestEffortFailure("user_settings")
		}
	}
	return u.Step, nil
}
