package onboarding

import (
	"strings"
	"time"
)

// Update is the profile mutation that moves a user to Step.
type Update struct {
	Step        Step
	FullName    *string
	Username    *string
	IsTeacher   *bool
	City        *string
	Country     *string
	Bio         *string
	CompletedAt *time.Time

	// PushOptIn is written to user settings, not the profile.
	PushOptIn *bool
}

// Columns returns the profile columns written by u.
func (u Update) Columns() map[string]any {
	cols := map[string]any{"onboarding_step": string(u.Step)}
	if u.FullName != nil {
		cols["full_name"] = *u.FullName
	}
	if u.Username != nil {
		cols["username"] = *u.Username
	}
	if u.IsTeacher != nil {
		cols["is_teacher"] = *u.IsTeacher
	}
	if u.City != nil {
		cols["city"] = *u.City
	}
	if u.Country != nil {
		cols["country"] = *u.Country
	}
	if u.Bio != nil {
		cols["bio"] = *u.Bio
	}
	if u.CompletedAt != nil {
		cols["onboarding_completed_at"] = *u.CompletedAt
	}
	return cols
}

// Advance validates f for current and returns the following step with the
// mutation to persist. It has no side effects.
func Advance(current Step, f Fields, now time.Time) (Step, Update, error) {
	if err := Validate(current, f); err != nil {
		return current, Update{}, err
	}
	next, ok := current.Next()
	if !ok {
		return current, Update{}, ErrAlreadyCompleted
	}

	u := Update{Step: next}
	switch current {
	case StepUserType:
		u.IsTeacher = f.IsTeacher
	case StepBasicInfo:
		u.FullName = trimmed(f.FullName)
		u.Username = trimmed(f.Username)
	case StepLocation:
		u.City = trimmed(f.City)
		u.Country = trimmed(f.Country)
	case StepBio:
		u.Bio = trimmed(f.Bio)
	case StepNotifications:
		optIn := f.PushOptIn != nil && *f.PushOptIn
		completedAt := now.UTC()
		u.PushOptIn = &optIn
		u.CompletedAt = &completedAt
	}
	return next, u, nil
}

func trimmed(s string) *string {
	v := strings.TrimSpace(s)
	return &v
}
