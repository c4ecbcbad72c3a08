// Package events describes activity lifecycle notifications and the sinks
// they are delivered to.
package events

import (
	"context"
	"time"
)

// Type names an activity lifecycle change.
type Type string

const (
	ActivityCreated   Type = "activity.created"
	ActivityUpdated   Type = "activity.updated"
	ActivityCancelled Type = "activity.cancelled"
	ActivityCompleted Type = "activity.completed"
	ParticipantJoined Type = "participant.joined"
	ParticipantLeft   Type = "participant.left"
)

// Event is emitted after a successful write.
type Event struct {
	Type       Type      `json:"type"`
	ActivityID string    `json:"activity_id"`
	UserID     string    `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with the current time.
func New(t Type, activityID, userID string) Event {
	return Event{Type: t, ActivityID: activityID, UserID: userID, OccurredAt: time.Now().UTC()}
}

// Notifier receives events. Implementations must not block the caller on
// slow consumers and must handle their own delivery errors.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Fanout delivers each event to every notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, ev Event) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, ev)
		}
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Notify(context.Context, Event) {}
