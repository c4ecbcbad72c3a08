package activity

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailmate/backend/internal/events"
	"trailmate/backend/internal/membership"
	"trailmate/backend/internal/models"
)

type call struct {
	op string
	id string
}

type fakeStore struct {
	activities   map[string]*models.Activity
	participants map[string][]models.ActivityParticipant
	calls        []call

	upsertErr error
	findErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		activities:   map[string]*models.Activity{},
		participants: map[string][]models.ActivityParticipant{},
	}
}

func (f *fakeStore) CreateActivity(_ context.Context, a *models.Activity) error {
	f.calls = append(f.calls, call{"create", a.ID})
	a.CreatedAt = time.Now()
	cp := *a
	f.activities[a.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateActivity(_ context.Context, id string, cols map[string]any) error {
	f.calls = append(f.calls, call{"update", id})
	a := f.activities[id]
	if v, ok := cols["name"].(string); ok {
		a.Name = v
	}
	if v, ok := cols["completed"].(bool); ok {
		a.Completed = v
	}
	return nil
}

func (f *fakeStore) FindActivity(_ context.Context, id string) (*models.Activity, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	a, ok := f.activities[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	cp := *a
	cp.Participants = append([]models.ActivityParticipant(nil), f.participants[id]...)
	return &cp, nil
}

func (f *fakeStore) ListActivitiesFrom(_ context.Context, from time.Time) ([]models.Activity, error) {
	var out []models.Activity
	for id := range f.activities {
		a, _ := f.FindActivity(context.Background(), id)
		if !a.Time.Before(from) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (f *fakeStore) ListPastActivities(_ context.Context, _ string, _ time.Time, _, _ int) ([]models.Activity, int64, error) {
	return nil, 0, nil
}

func (f *fakeStore) UpsertParticipant(_ context.Context, p models.ActivityParticipant) error {
	f.calls = append(f.calls, call{"upsert_participant", p.UserID})
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, existing := range f.participants[p.ActivityID] {
		if existing.UserID == p.UserID {
			return nil
		}
	}
	f.participants[p.ActivityID] = append(f.participants[p.ActivityID], p)
	return nil
}

func (f *fakeStore) DeleteParticipant(_ context.Context, activityID, userID string) error {
	f.calls = append(f.calls, call{"delete_participant", userID})
	kept := f.participants[activityID][:0]
	for _, p := range f.participants[activityID] {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	f.participants[activityID] = kept
	return nil
}

func (f *fakeStore) DeleteParticipants(_ context.Context, activityID string) error {
	f.calls = append(f.calls, call{"delete_participants", activityID})
	delete(f.participants, activityID)
	return nil
}

func (f *fakeStore) DeleteActivity(_ context.Context, id string) error {
	f.calls = append(f.calls, call{"delete_activity", id})
	delete(f.activities, id)
	return nil
}

type recorder struct{ got []events.Event }

func (r *recorder) Notify(_ context.Context, ev events.Event) { r.got = append(r.got, ev) }

func validInput() Input {
	return Input{Name: "  Sunrise run ", Sport: models.SportRunning, Time: time.Now().Add(24 * time.Hour)}
}

func TestCreateRecordsHost(t *testing.T) {
	store, rec := newFakeStore(), &recorder{}
	svc := NewService(store, rec)

	a, err := svc.Create(context.Background(), "host", validInput())
	require.NoError(t, err)
	assert.Equal(t, "Sunrise run", a.Name)
	assert.False(t, a.Completed)
	assert.Nil(t, a.Details)
	require.Len(t, a.Participants, 1)
	assert.Equal(t, models.RoleHost, a.Participants[0].Role)
	assert.Equal(t, "host", a.Participants[0].UserID)
	require.Len(t, rec.got, 1)
	assert.Equal(t, events.ActivityCreated, rec.got[0].Type)
}

func TestCreateToleratesHostParticipantFailure(t *testing.T) {
	store := newFakeStore()
	store.upsertErr = errors.New("insert failed")
	svc := NewService(store, nil)

	a, err := svc.Create(context.Background(), "host", validInput())
	require.NoError(t, err)
	assert.Empty(t, a.Participants)
	assert.Equal(t, membership.ActionCancelEvent, membership.Classify(*a, "host").Action)
}

func TestCreateRefetchFailure(t *testing.T) {
	store := newFakeStore()
	store.findErr = errors.New("timeout")
	svc := NewService(store, nil)

	_, err := svc.Create(context.Background(), "host", validInput())
	require.ErrorIs(t, err, ErrCreatedNotLoaded)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	long := strings.Repeat("word ", 101)
	blank := "   "

	cases := map[string]struct {
		in   Input
		want string
	}{
		"name":    {Input{Name: " ", Sport: models.SportHiking, Time: time.Now()}, "Please add a name for the activity."},
		"sport":   {Input{Name: "Hike", Sport: "curling", Time: time.Now()}, "Please choose a sport."},
		"time":    {Input{Name: "Hike", Sport: models.SportHiking}, "Please pick a time for the activity."},
		"details": {Input{Name: "Hike", Sport: models.SportHiking, Time: time.Now(), Details: &long}, "Details must be 100 words or fewer."},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "host", tc.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.want, verr.Message)
		})
	}

	in := validInput()
	in.Details = &blank
	a, err := svc.Create(context.Background(), "host", in)
	require.NoError(t, err)
	assert.Nil(t, a.Details)
}

func TestJoinIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	a, err := svc.Create(context.Background(), "host", validInput())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Join(context.Background(), a.ID, "rider"))
	}
	require.NoError(t, svc.Join(context.Background(), a.ID, "host"))

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, got.Participants, 2)
	assert.Equal(t, models.RoleHost, got.Participants[0].Role)
	assert.Equal(t, "rider", got.Participants[1].UserID)
}

func TestJoinRequiresViewerAndActivity(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	assert.ErrorIs(t, svc.Join(context.Background(), "missing", ""), ErrNoViewer)
	assert.ErrorIs(t, svc.Join(context.Background(), "missing", "rider"), ErrNotFound)
}

func TestLeave(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	a, err := svc.Create(context.Background(), "host", validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Join(context.Background(), a.ID, "rider"))

	assert.ErrorIs(t, svc.Leave(context.Background(), a.ID, "host"), ErrHostCannotLeave)
	require.NoError(t, svc.Leave(context.Background(), a.ID, "rider"))

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, got.Participants, 1)
	assert.Equal(t, "host", got.Participants[0].UserID)
}

func TestCancelDeletesParticipantsThenActivity(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	a, err := svc.Create(context.Background(), "host", validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Join(context.Background(), a.ID, "p1"))
	require.NoError(t, svc.Join(context.Background(), a.ID, "p2"))

	assert.ErrorIs(t, svc.Cancel(context.Background(), a.ID, "p1"), ErrNotHost)

	store.calls = nil
	action, err := svc.Perform(context.Background(), a.ID, "host")
	require.NoError(t, err)
	assert.Equal(t, membership.ActionCancelEvent, action)
	assert.Equal(t, []call{{"delete_participants", a.ID}, {"delete_activity", a.ID}}, store.calls)

	_, err = svc.Get(context.Background(), a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPerformFollowsClassification(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	a, err := svc.Create(context.Background(), "host", validInput())
	require.NoError(t, err)

	action, err := svc.Perform(context.Background(), a.ID, "rider")
	require.NoError(t, err)
	assert.Equal(t, membership.ActionJoinActivity, action)

	action, err = svc.Perform(context.Background(), a.ID, "rider")
	require.NoError(t, err)
	assert.Equal(t, membership.ActionLeaveActivity, action)

	action, err = svc.Perform(context.Background(), a.ID, "")
	assert.ErrorIs(t, err, ErrNoViewer)
	assert.Equal(t, membership.ActionNone, action)
}

func TestUpdateAndCompleteAreHostOnly(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	a, err := svc.Create(context.Background(), "host", validInput())
	require.NoError(t, err)

	in := validInput()
	in.Name = "Sunset run"
	_, err = svc.Update(context.Background(), "rider", a.ID, in)
	assert.ErrorIs(t, err, ErrNotHost)

	updated, err := svc.Update(context.Background(), "host", a.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Sunset run", updated.Name)

	_, err = svc.Complete(context.Background(), "rider", a.ID)
	assert.ErrorIs(t, err, ErrNotHost)
	done, err := svc.Complete(context.Background(), "host", a.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
}

func TestListUpcomingSkipsPast(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	for name, at := range map[string]time.Time{
		"later": now.Add(48 * time.Hour),
		"past":  now.Add(-time.Hour),
		"soon":  now.Add(time.Hour),
	} {
		in := validInput()
		in.Name, in.Time = name, at
		_, err := svc.Create(context.Background(), "host", in)
		require.NoError(t, err)
	}

	list, err := svc.ListUpcoming(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "soon", list[0].Name)
	assert.Equal(t, "later", list[1].Name)
}
