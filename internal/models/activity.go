package models

import "time"

// Sport is the closed set of activity kinds.
type Sport string

const (
	SportRunning        Sport = "running"
	SportTrailRunning   Sport = "trail running"
	SportHiking         Sport = "hiking"
	SportRoadBiking     Sport = "road biking"
	SportGravelBiking   Sport = "gravel biking"
	SportMountainBiking Sport = "mountain biking"
)

// Sports returns every supported sport in display order.
func Sports() []Sport {
	return []Sport{SportRunning, SportTrailRunning, SportHiking, SportRoadBiking, SportGravelBiking, SportMountainBiking}
}

// Valid reports whether s is one of the supported sports.
func (s Sport) Valid() bool {
	for _, sport := range Sports() {
		if s == sport {
			return true
		}
	}
	return false
}

// ParticipantRole defines how a user belongs to an activity.
type ParticipantRole string

const (
	// RoleHost is held by exactly one participant: the activity's creator.
	RoleHost ParticipantRole = "host"

	// RoleParticipant is held by everyone who joined.
	RoleParticipant ParticipantRole = "participant"
)

// Activity is a scheduled group meetup.
type Activity struct {
	ID           string                `gorm:"type:uuid;primaryKey" json:"id"`
	HostID       string                `gorm:"type:uuid;not null;index" json:"host_id"`
	Name         string                `gorm:"size:255;not null" json:"name"`
	Sport        Sport                 `gorm:"size:50;not null" json:"sport"`
	Time         time.Time             `gorm:"not null;index" json:"time"`
	Completed    bool                  `gorm:"not null;default:false" json:"completed"`
	Details      *string               `gorm:"type:text" json:"details"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Participants []ActivityParticipant `gorm:"foreignKey:ActivityID" json:"activity_participants"`
}

// ActivityParticipant is a membership row.
// The primary key is a composite of (ActivityID, UserID) so a user appears at most once.
type ActivityParticipant struct {
	ActivityID string              `gorm:"type:uuid;primaryKey" json:"activity_id"`
	UserID     string              `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role       ParticipantRole     `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt   time.Time           `gorm:"not null" json:"joined_at"`
	Profile    *ParticipantProfile `gorm:"foreignKey:UserID;references:ID" json:"profile,omitempty"`
}
