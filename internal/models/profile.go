package models

import "time"

// Profile is the public and onboarding state of a user.
type Profile struct {
	ID                    string     `gorm:"type:uuid;primaryKey" json:"id"`
	FullName              *string    `gorm:"size:255" json:"full_name"`
	Username              *string    `gorm:"size:64;uniqueIndex" json:"username"`
	AvatarURL             *string    `gorm:"size:512" json:"avatar_url"`
	Bio                   *string    `gorm:"type:text" json:"bio"`
	City                  *string    `gorm:"size:255" json:"city"`
	Country               *string    `gorm:"size:255" json:"country"`
	IsTeacher             *bool      `json:"is_teacher"`
	OnboardingStep        string     `gorm:"size:32" json:"onboarding_step"`
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// ParticipantProfile is the read-only slice of a profile shown next to
// activity participants. It is joined at fetch time and never written.
// Its column tags mirror Profile so migrations see the same table shape.
type ParticipantProfile struct {
	ID        string  `gorm:"type:uuid;primaryKey" json:"id"`
	FullName  *string `gorm:"size:255" json:"full_name"`
	Username  *string `gorm:"size:64;uniqueIndex" json:"username"`
	AvatarURL *string `gorm:"size:512" json:"avatar_url"`
}

func (ParticipantProfile) TableName() string {
	return "profiles"
}

// ParticipantProfileColumns lists the columns loaded into a ParticipantProfile.
var ParticipantProfileColumns = []string{"id", "full_name", "username", "avatar_url"}
