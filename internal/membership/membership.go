// Package membership derives a viewer's relationship to activities and the
// single membership action they may take. Everything here is pure.
package membership

import "trailmate/backend/internal/models"

// ActionKind is the membership action offered to a viewer.
type ActionKind string

const (
	ActionNone          ActionKind = ""
	ActionCancelEvent   ActionKind = "cancel_event"
	ActionLeaveActivity ActionKind = "leave_activity"
	ActionJoinActivity  ActionKind = "join_activity"
)

// Label is the control text.
func (k ActionKind) Label() string {
	switch k {
	case ActionCancelEvent:
		return "Cancel event"
	case ActionLeaveActivity:
		return "Leave activity"
	case ActionJoinActivity:
		return "Join activity"
	}
	return ""
}

// FailureTitle titles the notice shown when the action fails.
func (k ActionKind) FailureTitle() string {
	switch k {
	case ActionCancelEvent:
		return "Cancel failed"
	case ActionLeaveActivity:
		return "Leave failed"
	case ActionJoinActivity:
		return "Join failed"
	}
	return ""
}

// FallbackMessage is used when a failure carries no message of its own.
func (k ActionKind) FallbackMessage() string {
	switch k {
	case ActionCancelEvent:
		return "Failed to cancel event."
	case ActionLeaveActivity:
		return "Failed to leave activity."
	case ActionJoinActivity:
		return "Failed to join activity."
	}
	return ""
}

// Classification is a viewer's relationship to one activity.
type Classification struct {
	IsHost        bool
	IsParticipant bool
	CanEdit       bool
	Action        ActionKind
}

// IsParticipant reports whether userID has a membership row on a.
func IsParticipant(a models.Activity, userID string) bool {
	if userID == "" {
		return false
	}
	for _, p := range a.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Classify computes the viewer's flags and action. Host takes precedence
// over participant, participant over everyone else. An anonymous viewer
// gets no action.
func Classify(a models.Activity, viewerID string) Classification {
	if viewerID == "" {
		return Classification{}
	}

	c := Classification{
		IsHost:        a.HostID == viewerID,
		IsParticipant: IsParticipant(a, viewerID),
	}
	switch {
	case c.IsHost:
		c.Action = ActionCancelEvent
		c.CanEdit = true
	case c.IsParticipant:
		c.Action = ActionLeaveActivity
	default:
		c.Action = ActionJoinActivity
	}
	return c
}

// Partition splits activities into those the viewer hosts or joined and the
// rest. Both results keep the input order.
func Partition(activities []models.Activity, viewerID string) (hostingOrJoined, available []models.Activity) {
	hostingOrJoined = make([]models.Activity, 0, len(activities))
	available = make([]models.Activity, 0, len(activities))
	for _, a := range activities {
		c := Classify(a, viewerID)
		if c.IsHost || c.IsParticipant {
			hostingOrJoined = append(hostingOrJoined, a)
		} else {
			available = append(available, a)
		}
	}
	return hostingOrJoined, available
}
