package onboarding

import "fmt"

// Step is a stage of the onboarding wizard.
type Step string

const (
	StepEmailVerification Step = "email_verification"
	StepUserType          Step = "user_type"
	StepBasicInfo         Step = "basic_info"
	StepLocation          Step = "location"
	StepBio               Step = "bio"
	StepNotifications     Step = "notifications"

	// StepCompleted is terminal. Users on it are routed to the main app.
	StepCompleted Step = "completed"
)

// order is the canonical ordinal table. Never compare steps as strings.
var order = [...]Step{
	StepEmailVerification,
	StepUserType,
	StepBasicInfo,
	StepLocation,
	StepBio,
	StepNotifications,
	StepCompleted,
}

// Steps returns all steps in canonical order.
func Steps() []Step {
	steps := make([]Step, len(order))
	copy(steps, order[:])
	return steps
}

// Index returns the ordinal of s, or -1 if s is not a known step.
func (s Step) Index() int {
	for i, step := range order {
		if step == s {
			return i
		}
	}
	return -1
}

func (s Step) Valid() bool {
	return s.Index() >= 0
}

func (s Step) Terminal() bool {
	return s == StepCompleted
}

// Next returns the step following s. ok is false for the terminal step and unknown values.
func (s Step) Next() (next Step, ok bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(order) {
		return "", false
	}
	return order[i+1], true
}

// FailureMessage is shown when persisting this step fails for an unclassified reason.
func (s Step) FailureMessage() string {
	switch s {
	case StepUserType:
		return "Failed to update user type"
	case StepNotifications:
		return "Failed to complete onboarding"
	default:
		return "Failed to update profile"
	}
}

// ParseStep converts a raw value into a Step.
func ParseStep(raw string) (Step, error) {
	s := Step(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStep, raw)
	}
	return s, nil
}

// Resolve maps a recorded step to the step a user should be routed to.
// Accounts without a usable recorded step start at email verification.
func Resolve(recorded string) Step {
	s, err := ParseStep(recorded)
	if err != nil {
		return StepEmailVerification
	}
	return s
}
