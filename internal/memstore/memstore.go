// Package memstore is an in-memory Store with the same contract as the
// gorm-backed database.Store. It backs router and client tests.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"trailmate/backend/internal/models"
)

var errForeignKey = errors.New("violates foreign key constraint")

type Store struct {
	mu           sync.RWMutex
	users        map[string]models.User
	profiles     map[string]models.Profile
	settings     map[string]models.UserSettings
	activities   map[string]models.Activity
	participants map[string][]models.ActivityParticipant
	now          func() time.Time
}

func New() *Store {
	return &Store{
		users:        map[string]models.User{},
		profiles:     map[string]models.Profile{},
		settings:     map[string]models.UserSettings{},
		activities:   map[string]models.Activity{},
		participants: map[string][]models.ActivityParticipant{},
		now:          time.Now,
	}
}

// Settings returns the stored settings for userID.
func (s *Store) Settings(userID string) (models.UserSettings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[userID]
	return st, ok
}

// region --- accounts ---

func (s *Store) CreateAccount(_ context.Context, user *models.User, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return models.ErrDuplicate
		}
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	profile.CreatedAt, profile.UpdatedAt = now, now
	s.users[user.ID] = *user
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *Store) FindAccountByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrRecordNotFound
}

func (s *Store) FindAccountByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &u, nil
}

func (s *Store) SetConfirmationToken(_ context.Context, userID, token string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.ErrRecordNotFound
	}
	u.ConfirmationToken = token
	u.ConfirmationSentAt = &sentAt
	s.users[userID] = u
	return nil
}

func (s *Store) ConfirmEmail(_ context.Context, token string, at time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if token != "" && u.ConfirmationToken == token {
			u.EmailConfirmedAt = &at
			u.ConfirmationToken = ""
			s.users[id] = u
			return &u, nil
		}
	}
	return nil, models.ErrRecordNotFound
}

// endregion

// region --- profiles ---

func (s *Store) FindProfile(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return &p, nil
}

func (s *Store) UpsertProfile(_ context.Context, id string, columns map[string]any) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		p = models.Profile{ID: id, CreatedAt: s.now()}
	}
	for column, value := range columns {
		if err := setProfileColumn(&p, column, value); err != nil {
			return nil, err
		}
	}
	if p.Username != nil {
		for otherID, other := range s.profiles {
			if otherID != id && other.Username != nil && *other.Username == *p.Username {
				return nil, fmt.Errorf("%w: profiles.username", models.ErrDuplicate)
			}
		}
	}
	p.UpdatedAt = s.now()
	s.profiles[id] = p
	return &p, nil
}

func setProfileColumn(p *models.Profile, column string, value any) error {
	switch column {
	case "full_name":
		p.FullName = text(value)
	case "username":
		p.Username = text(value)
	case "avatar_url":
		p.AvatarURL = text(value)
	case "bio":
		p.Bio = text(value)
	case "city":
		p.City = text(value)
	case "country":
		p.Country = text(value)
	case "is_teacher":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("is_teacher: unexpected %T", value)
		}
		p.IsTeacher = &b
	case "onboarding_step":
		step, ok := value.(string)
		if !ok {
			return fmt.Errorf("onboarding_step: unexpected %T", value)
		}
		p.OnboardingStep = step
	case "onboarding_completed_at":
		at, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("onboarding_completed_at: unexpected %T", value)
		}
		p.OnboardingCompletedAt = &at
	default:
		return fmt.Errorf("unknown profile column %q", column)
	}
	return nil
}

func text(value any) *string {
	switch v := value.(type) {
	case string:
		return &v
	case *string:
		return v
	}
	return nil
}

func (s *Store) UpsertSettings(_ context.Context, settings models.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.UpdatedAt = s.now()
	s.settings[settings.UserID] = settings
	return nil
}

// endregion

// region --- activities ---

func (s *Store) CreateActivity(_ context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[a.ID]; ok {
		return models.ErrDuplicate
	}
	now := s.now()
	a.CreatedAt, a.UpdatedAt = now, now
	stored := *a
	stored.Participants = nil
	s.activities[a.ID] = stored
	return nil
}

func (s *Store) UpdateActivity(_ context.Context, id string, columns map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[id]
	if !ok {
		return models.ErrRecordNotFound
	}
	for column, value := range columns {
		switch column {
		case "name":
			a.Name, _ = value.(string)
		case "sport":
			sport, _ := value.(string)
			a.Sport = models.Sport(sport)
		case "time":
			a.Time, _ = value.(time.Time)
		case "details":
			a.Details = text(value)
		case "completed":
			a.Completed, _ = value.(bool)
		default:
			return fmt.Errorf("unknown activity column %q", column)
		}
	}
	a.UpdatedAt = s.now()
	s.activities[id] = a
	return nil
}

// assemble must be called with the lock held.
func (s *Store) assemble(a models.Activity) models.Activity {
	rows := s.participants[a.ID]
	a.Participants = make([]models.ActivityParticipant, 0, len(rows))
	for _, p := range rows {
		if profile, ok := s.profiles[p.UserID]; ok {
			p.Profile = &models.ParticipantProfile{
				ID:        profile.ID,
				FullName:  profile.FullName,
				Username:  profile.Username,
				AvatarURL: profile.AvatarURL,
			}
		}
		a.Participants = append(a.Participants, p)
	}
	return a
}

func (s *Store) FindActivity(_ context.Context, id string) (*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	out := s.assemble(a)
	return &out, nil
}

func (s *Store) ListActivitiesFrom(_ context.Context, from time.Time) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []models.Activity
	for _, a := range s.activities {
		if !a.Time.Before(from) {
			list = append(list, s.assemble(a))
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Time.Before(list[j].Time) })
	return list, nil
}

func (s *Store) ListPastActivities(_ context.Context, userID string, before time.Time, page, limit int) ([]models.Activity, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []models.Activity
	for _, a := range s.activities {
		if !a.Time.Before(before) {
			continue
		}
		member := a.HostID == userID
		for _, p := range s.participants[a.ID] {
			member = member || p.UserID == userID
		}
		if member {
			list = append(list, s.assemble(a))
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Time.After(list[j].Time) })

	total := int64(len(list))
	start := min((page-1)*limit, len(list))
	end := min(start+limit, len(list))
	return list[start:end], total, nil
}

func (s *Store) UpsertParticipant(_ context.Context, p models.ActivityParticipant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[p.ActivityID]; !ok {
		return fmt.Errorf("activity %s: %w", p.ActivityID, errForeignKey)
	}
	for _, existing := range s.participants[p.ActivityID] {
		if existing.UserID == p.UserID {
			return nil
		}
	}
	p.Profile = nil
	s.participants[p.ActivityID] = append(s.participants[p.ActivityID], p)
	return nil
}

func (s *Store) DeleteParticipant(_ context.Context, activityID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.participants[activityID]
	kept := make([]models.ActivityParticipant, 0, len(rows))
	for _, p := range rows {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	s.participants[activityID] = kept
	return nil
}

func (s *Store) DeleteParticipants(_ context.Context, activityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, activityID)
	return nil
}

func (s *Store) DeleteActivity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[id]; !ok {
		return models.ErrRecordNotFound
	}
	if len(s.participants[id]) > 0 {
		return fmt.Errorf("activity %s still has participants: %w", id, errForeignKey)
	}
	delete(s.activities, id)
	return nil
}

// endregion
