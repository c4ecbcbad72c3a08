package models

import "time"

// User is an authentication account. Its ID is shared with the Profile row.
type User struct {
	ID                 string     `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash       string     `gorm:"size:255;not null" json:"-"`
	EmailConfirmedAt   *time.Time `json:"email_confirmed_at"`
	ConfirmationToken  string     `gorm:"size:64;index" json:"-"`
	ConfirmationSentAt *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"-"`
}

// Confirmed reports whether the email address has been verified.
func (u User) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}

// UserSettings holds per-user preferences written outside the profile.
type UserSettings struct {
	UserID    string    `gorm:"type:uuid;primaryKey" json:"user_id"`
	PushOptIn bool      `gorm:"not null;default:false" json:"push_opt_in"`
	UpdatedAt time.Time `json:"updated_at"`
}
