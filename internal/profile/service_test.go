package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailmate/backend/internal/models"
)

type fakeStore struct {
	profiles map[string]models.Profile
	writes   []map[string]any
	err      error
}

func (f *fakeStore) FindProfile(_ context.Context, id string) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &p, nil
}

func (f *fakeStore) UpsertProfile(_ context.Context, id string, cols map[string]any) (*models.Profile, error) {
	f.writes = append(f.writes, cols)
	if f.err != nil {
		return nil, f.err
	}
	p := f.profiles[id]
	p.ID = id
	if v, ok := cols["username"].(string); ok {
		p.Username = &v
	}
	if v, ok := cols["city"].(string); ok {
		p.City = &v
	}
	if v, ok := cols["avatar_url"].(string); ok {
		p.AvatarURL = &v
	}
	f.profiles[id] = p
	return &p, nil
}

func ptr[T any](v T) *T { return &v }

func TestGet(t *testing.T) {
	svc := NewService(&fakeStore{profiles: map[string]models.Profile{"u1": {ID: "u1"}}})

	p, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)

	_, err = svc.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate(t *testing.T) {
	store := &fakeStore{profiles: map[string]models.Profile{"u1": {ID: "u1"}}}
	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.Update(ctx, "u1", Input{Username: ptr("  ab  ")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Username must be at least 3 characters long", verr.Message)
	assert.Empty(t, store.writes)

	p, err := svc.Update(ctx, "u1", Input{Username: ptr(" trailboss "), City: ptr(" Lyon ")})
	require.NoError(t, err)
	assert.Equal(t, "trailboss", *p.Username)
	assert.Equal(t, "Lyon", *p.City)
	require.Len(t, store.writes, 1)
	assert.NotContains(t, store.writes[0], "bio")

	// An empty form only reads.
	_, err = svc.Update(ctx, "u1", Input{})
	require.NoError(t, err)
	assert.Len(t, store.writes, 1)
}

func TestUpdateUsernameTaken(t *testing.T) {
	store := &fakeStore{profiles: map[string]models.Profile{}, err: models.ErrDuplicate}
	_, err := NewService(store).Update(context.Background(), "u1", Input{Username: ptr("taken")})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	store.err = errors.New("connection reset")
	_, err = NewService(store).SetAvatar(context.Background(), "u1", "u1/a.png")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUsernameTaken)
}

func TestSetAvatar(t *testing.T) {
	store := &fakeStore{profiles: map[string]models.Profile{}}
	p, err := NewService(store).SetAvatar(context.Background(), "u1", "u1/a.png")
	require.NoError(t, err)
	assert.Equal(t, "u1/a.png", *p.AvatarURL)
}
