package activity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"trailmate/backend/internal/events"
	"trailmate/backend/internal/membership"
	"trailmate/backend/internal/models"
	"trailmate/backend/internal/observability"
)

var (
	ErrNotFound        = errors.New("Activity not found")
	ErrNotHost         = errors.New("Only the host can change this activity")
	ErrHostCannotLeave = errors.New("The host cannot leave their own activity. Cancel it instead.")
	ErrNoViewer        = errors.New("You must be logged in to join an activity.")

	ErrCreatedNotLoaded = errors.New("Failed to load the newly created activity")
	ErrUpdatedNotLoaded = errors.New("Failed to load the updated activity")
)

const maxDetailsWords = 100

// ValidationError reports an input rejected before reaching the store.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Store is the persistence used by Service.
type Store interface {
	CreateActivity(ctx context.Context, a *models.Activity) error
	UpdateActivity(ctx context.Context, id string, columns map[string]any) error
	FindActivity(ctx context.Context, id string) (*models.Activity, error)
	ListActivitiesFrom(ctx context.Context, from time.Time) ([]models.Activity, error)
	ListPastActivities(ctx context.Context, userID string, before time.Time, page, limit int) ([]models.Activity, int64, error)
	UpsertParticipant(ctx context.Context, p models.ActivityParticipant) error
	DeleteParticipant(ctx context.Context, activityID, userID string) error
	DeleteParticipants(ctx context.Context, activityID string) error
	DeleteActivity(ctx context.Context, id string) error
}

// Input is the create/edit form.
type Input struct {
	Name    string       `json:"name"`
	Sport   models.Sport `json:"sport"`
	Time    time.Time    `json:"time"`
	Details *string      `json:"details"`
}

// normalize validates in and returns the cleaned name and details.
func (in Input) normalize() (string, *string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", nil, &ValidationError{Message: "Please add a name for the activity."}
	}
	if !in.Sport.Valid() {
		return "", nil, &ValidationError{Message: "Please choose a sport."}
	}
	if in.Time.IsZero() {
		return "", nil, &ValidationError{Message: "Please pick a time for the activity."}
	}
	if in.Details == nil {
		return name, nil, nil
	}
	details := strings.TrimSpace(*in.Details)
	if details == "" {
		return name, nil, nil
	}
	if len(strings.Fields(details)) > maxDetailsWords {
		return "", nil, &ValidationError{Message: "Details must be 100 words or fewer."}
	}
	return name, &details, nil
}

// Service implements activity hosting and membership.
type Service struct {
	store    Store
	notifier events.Notifier
	now      func() time.Time
}

func NewService(store Store, notifier events.Notifier) *Service {
	if notifier == nil {
		notifier = events.Discard{}
	}
	return &Service{store: store, notifier: notifier, now: time.Now}
}

func (s *Service) find(ctx context.Context, id string) (*models.Activity, error) {
	a, err := s.store.FindActivity(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch activity: %w", err)
	}
	return a, nil
}

// Get loads an activity with its participants.
func (s *Service) Get(ctx context.Context, id string) (*models.Activity, error) {
	return s.find(ctx, id)
}

// ListUpcoming returns activities starting now or later, soonest first.
func (s *Service) ListUpcoming(ctx context.Context) ([]models.Activity, error) {
	list, err := s.store.ListActivitiesFrom(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return list, nil
}

// History returns a page of past activities userID hosted or joined, newest first.
func (s *Service) History(ctx context.Context, userID string, page, limit int) ([]models.Activity, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	list, total, err := s.store.ListPastActivities(ctx, userID, s.now(), page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list past activities: %w", err)
	}
	return list, total, nil
}

// Create inserts the activity and then records the host as a participant.
// The second write is best effort: if it fails the activity is still returned.
func (s *Service) Create(ctx context.Context, hostID string, in Input) (*models.Activity, error) {
	name, details, err := in.normalize()
	if err != nil {
		return nil, err
	}

	a := models.Activity{
		ID:      uuid.NewString(),
		HostID:  hostID,
		Name:    name,
		Sport:   in.Sport,
		Time:    in.Time.UTC(),
		Details: details,
	}
	if err := s.store.CreateActivity(ctx, &a); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	observability.RecordActivityCreated(a.CreatedAt)

	host := models.ActivityParticipant{ActivityID: a.ID, UserID: hostID, Role: models.RoleHost, JoinedAt: s.now().UTC()}
	if err := s.store.UpsertParticipant(ctx, host); err != nil {
		log.Printf("Failed to record host as participant for activity %s: %v", a.ID, err)
		observability.RecordBestEffortFailure("host_participant")
	}

	created, err := s.store.FindActivity(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreatedNotLoaded, err)
	}
	s.notifier.Notify(ctx, events.New(events.ActivityCreated, a.ID, hostID))
	return created, nil
}

// Update edits an activity. Only the host may do so.
func (s *Service) Update(ctx context.Context, viewerID, id string, in Input) (*models.Activity, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !membership.Classify(*a, viewerID).CanEdit {
		return nil, ErrNotHost
	}
	name, details, err := in.normalize()
	if err != nil {
		return nil, err
	}

	cols := map[string]any{
		"name":    name,
		"sport":   string(in.Sport),
		"time":    in.Time.UTC(),
		"details": details,
	}
	if err := s.store.UpdateActivity(ctx, id, cols); err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}

	updated, err := s.store.FindActivity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpdatedNotLoaded, err)
	}
	s.notifier.Notify(ctx, events.New(events.ActivityUpdated, id, viewerID))
	return updated, nil
}

// Complete marks a finished activity. Only the host may do so.
func (s *Service) Complete(ctx context.Context, viewerID, id string) (*models.Activity, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.HostID != viewerID {
		return nil, ErrNotHost
	}
	if a.Completed {
		return a, nil
	}
	if err := s.store.UpdateActivity(ctx, id, map[string]any{"completed": true}); err != nil {
		return nil, fmt.Errorf("complete activity: %w", err)
	}
	a.Completed = true
	s.notifier.Notify(ctx, events.New(events.ActivityCompleted, id, viewerID))
	return a, nil
}

// Join adds userID as a participant. Joining twice is a no-op.
func (s *Service) Join(ctx context.Context, id, userID string) (err error) {
	defer func() { observability.RecordMembershipAction(string(membership.ActionJoinActivity), err) }()

	if userID == "" {
		return ErrNoViewer
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	p := models.ActivityParticipant{ActivityID: id, UserID: userID, Role: models.RoleParticipant, JoinedAt: s.now().UTC()}
	if err := s.store.UpsertParticipant(ctx, p); err != nil {
		return fmt.Errorf("join activity: %w", err)
	}
	s.notifier.Notify(ctx, events.New(events.ParticipantJoined, id, userID))
	return nil
}

// Leave removes userID's participant row. The host must cancel instead.
func (s *Service) Leave(ctx context.Context, id, userID string) (err error) {
	defer func() { observability.RecordMembershipAction(string(membership.ActionLeaveActivity), err) }()

	a, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if a.HostID == userID {
		return ErrHostCannotLeave
	}
	if err := s.store.DeleteParticipant(ctx, id, userID); err != nil {
		return fmt.Errorf("leave activity: %w", err)
	}
	s.notifier.Notify(ctx, events.New(events.ParticipantLeft, id, userID))
	return nil
}

// Cancel deletes an activity. Participant rows are removed first, then the
// activity row, as two separate writes.
func (s *Service) Cancel(ctx context.Context, id, userID string) (err error) {
	defer func() { observability.RecordMembershipAction(string(membership.ActionCancelEvent), err) }()

	a, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if a.HostID != userID {
		return ErrNotHost
	}
	if err := s.store.DeleteParticipants(ctx, id); err != nil {
		return fmt.Errorf("delete participants: %w", err)
	}
	if err := s.store.DeleteActivity(ctx, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	s.notifier.Notify(ctx, events.New(events.ActivityCancelled, id, userID))
	return nil
}

// Perform runs the single membership action the viewer is offered on the activity.
func (s *Service) Perform(ctx context.Context, id, viewerID string) (membership.ActionKind, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return membership.ActionNone, err
	}
	action := membership.Classify(*a, viewerID).Action
	switch action {
	case membership.ActionCancelEvent:
		return action, s.Cancel(ctx, id, viewerID)
	case membership.ActionLeaveActivity:
		return action, s.Leave(ctx, id, viewerID)
	case membership.ActionJoinActivity:
		return action, s.Join(ctx, id, viewerID)
	default:
		return action, ErrNoViewer
	}
}
