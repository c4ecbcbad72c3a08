package client

import (
	"sync"

	"trailmate/backend/internal/handler"
	"trailmate/backend/internal/membership"
	"trailmate/backend/internal/models"
)

// Session is the signed-in account and its bearer token.
type Session struct {
	AccessToken string
	User        handler.UserResponse
}

// State is everything the app shows. Read it through Store.Snapshot.
type State struct {
	Session    *Session
	Profile    *models.Profile
	Activities []handler.ActivityResponse

	// InFlight holds the membership action running for each activity id.
	InFlight map[string]membership.ActionKind
}

// Action is a state transition. Only the types in this file implement it.
type Action interface {
	apply(s *State)
}

type SignedIn struct{ Session Session }

type SignedOut struct{}

type ProfileLoaded struct{ Profile models.Profile }

type ActivitiesLoaded struct{ Activities []handler.ActivityResponse }

// ActivityCreated puts a new activity at the front of the list.
type ActivityCreated struct{ Activity handler.ActivityResponse }

// ActivityUpdated replaces the activity with the same id, keeping its position.
type ActivityUpdated struct{ Activity handler.ActivityResponse }

type ActionStarted struct {
	ActivityID string
	Kind       membership.ActionKind
}

type ActionFinished struct{ ActivityID string }

func (a SignedIn) apply(s *State) {
	session := a.Session
	s.Session = &session
}

func (SignedOut) apply(s *State) {
	*s = State{InFlight: map[string]membership.ActionKind{}}
}

func (a ProfileLoaded) apply(s *State) {
	p := a.Profile
	s.Profile = &p
}

func (a ActivitiesLoaded) apply(s *State) {
	s.Activities = append([]handler.ActivityResponse(nil), a.Activities...)
}

func (a ActivityCreated) apply(s *State) {
	s.Activities = append([]handler.ActivityResponse{a.Activity}, s.Activities...)
}

func (a ActivityUpdated) apply(s *State) {
	for i := range s.Activities {
		if s.Activities[i].ID == a.Activity.ID {
			s.Activities[i] = a.Activity
			return
		}
	}
}

func (a ActionStarted) apply(s *State) {
	s.InFlight[a.ActivityID] = a.Kind
}

func (a ActionFinished) apply(s *State) {
	delete(s.InFlight, a.ActivityID)
}

// Store owns State. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state State

	subs   map[int]chan *Session
	nextID int
}

func NewStore() *Store {
	return &Store{
		state: State{InFlight: map[string]membership.ActionKind{}},
		subs:  map[int]chan *Session{},
	}
}

// Dispatch applies action and, when the session changed, tells subscribers.
func (st *Store) Dispatch(action Action) {
	st.mu.Lock()
	defer st.mu.Unlock()

	action.apply(&st.state)

	switch action.(type) {
	case SignedIn, SignedOut:
		var session *Session
		if st.state.Session != nil {
			s := *st.state.Session
			session = &s
		}
		for _, ch := range st.subs {
			// Subscribers only care about the latest session.
			select {
			case <-ch:
			default:
			}
			ch <- session
		}
	}
}

// TryStart marks kind as running on activityID unless another action already
// is. It reports whether the mark was taken; release it with ActionFinished.
func (st *Store) TryStart(activityID string, kind membership.ActionKind) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, busy := st.state.InFlight[activityID]; busy {
		return false
	}
	ActionStarted{ActivityID: activityID, Kind: kind}.apply(&st.state)
	return true
}

// Snapshot returns a copy of the current state.
func (st *Store) Snapshot() State {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := State{
		Activities: append([]handler.ActivityResponse(nil), st.state.Activities...),
		InFlight:   make(map[string]membership.ActionKind, len(st.state.InFlight)),
	}
	if st.state.Session != nil {
		s := *st.state.Session
		out.Session = &s
	}
	if st.state.Profile != nil {
		p := *st.state.Profile
		out.Profile = &p
	}
	for id, kind := range st.state.InFlight {
		out.InFlight[id] = kind
	}
	return out
}

// SessionChanged delivers the session after every sign in and sign out
// (nil when signed out). Call the returned func to stop and close the channel.
func (st *Store) SessionChanged() (<-chan *Session, func()) {
	st.mu.Lock()
	defer st.mu.Unlock()

	id := st.nextID
	st.nextID++
	ch := make(chan *Session, 1)
	st.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			st.mu.Lock()
			defer st.mu.Unlock()
			delete(st.subs, id)
			close(ch)
		})
	}
}
