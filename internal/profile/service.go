package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"trailmate/backend/internal/models"
)

var (
	ErrNotFound      = errors.New("profile not found")
	ErrUsernameTaken = errors.New("Username already taken. Please choose another one.")
)

// ValidationError reports an input rejected before reaching the store.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Store is the persistence used by Service.
type Store interface {
	FindProfile(ctx context.Context, id string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, id string, columns map[string]any) (*models.Profile, error)
}

// Input carries the editable profile fields. Nil fields are left unchanged.
type Input struct {
	FullName  *string `json:"full_name"`
	Username  *string `json:"username"`
	Bio       *string `json:"bio"`
	City      *string `json:"city"`
	Country   *string `json:"country"`
	IsTeacher *bool   `json:"is_teacher"`
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get loads a profile by user id.
func (s *Service) Get(ctx context.Context, id string) (*models.Profile, error) {
	p, err := s.store.FindProfile(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	return p, nil
}

// Update applies the editor form.
func (s *Service) Update(ctx context.Context, id string, in Input) (*models.Profile, error) {
	cols := map[string]any{}
	setText := func(column string, v *string) {
		if v != nil {
			cols[column] = strings.TrimSpace(*v)
		}
	}
	setText("full_name", in.FullName)
	setText("bio", in.Bio)
	setText("city", in.City)
	setText("country", in.Country)
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if utf8.RuneCountInString(username) < 3 {
			return nil, &ValidationError{Message: "Username must be at least 3 characters long"}
		}
		cols["username"] = username
	}
	if in.IsTeacher != nil {
		cols["is_teacher"] = *in.IsTeacher
	}
	if len(cols) == 0 {
		return s.Get(ctx, id)
	}
	return s.write(ctx, id, cols)
}

// SetAvatar points the profile at an object in the avatar bucket or an external URL.
func (s *Service) SetAvatar(ctx context.Context, id, avatarURL string) (*models.Profile, error) {
	return s.write(ctx, id, map[string]any{"avatar_url": avatarURL})
}

func (s *Service) write(ctx context.Context, id string, cols map[string]any) (*models.Profile, error) {
	p, err := s.store.UpsertProfile(ctx, id, cols)
	if errors.Is(err, models.ErrDuplicate) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}
