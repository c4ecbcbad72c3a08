// Package client is a Go SDK for the trailmate API. Responses are folded
// into a Store so callers render from one state container.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"trailmate/backend/internal/handler"
	"trailmate/backend/internal/membership"
	"trailmate/backend/internal/models"
	"trailmate/backend/internal/onboarding"
	"trailmate/backend/internal/profile"
)

// Client talks to one API server.
type Client struct {
	baseURL string
	http    *http.Client
	store   *Store
}

// New creates a Client for the server at baseURL (scheme and host, no /api/v1).
// A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    httpClient,
		store:   NewStore(),
	}
}

func (c *Client) Store() *Store {
	return c.store
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session := c.store.Snapshot().Session; session != nil {
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e handler.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) session() (*Session, error) {
	session := c.store.Snapshot().Session
	if session == nil {
		return nil, ErrNotSignedIn
	}
	return session, nil
}

// region --- auth ---

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*Session, error) {
	var resp handler.SessionResponse
	if err := c.do(ctx, http.MethodPost, path, handler.CredentialsInput{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	session := Session{AccessToken: resp.AccessToken, User: resp.User}
	c.store.Dispatch(SignedIn{Session: session})
	return &session, nil
}

// SignUp creates an account and signs in with it.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/auth/signup", email, password)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/auth/signin", email, password)
}

// SignOut drops the session and everything loaded with it.
func (c *Client) SignOut() {
	c.store.Dispatch(SignedOut{})
}

// RefreshUser reloads the account, picking up a confirmed email.
func (c *Client) RefreshUser(ctx context.Context) (*handler.UserResponse, error) {
	session, err := c.session()
	if err != nil {
		return nil, err
	}
	var user handler.UserResponse
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, &user); err != nil {
		return nil, err
	}
	c.store.Dispatch(SignedIn{Session: Session{AccessToken: session.AccessToken, User: user}})
	return &user, nil
}

// Resend mails a new sign up confirmation link to email.
func (c *Client) Resend(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/resend", handler.ResendInput{Type: "signup", Email: email}, nil)
}

// endregion

// region --- onboarding ---

func (c *Client) Onboarding(ctx context.Context) (*handler.OnboardingStateResponse, error) {
	var state handler.OnboardingStateResponse
	if err := c.do(ctx, http.MethodGet, "/onboarding", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// CheckVerified asks the server whether the email is confirmed. When it is,
// onboarding moves on to user type.
func (c *Client) CheckVerified(ctx context.Context) (*handler.VerifyEmailResponse, error) {
	var resp handler.VerifyEmailResponse
	if err := c.do(ctx, http.MethodPost, "/onboarding/verify-email", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitStep sends a wizard screen. Fields are validated locally first, so an
// incomplete form never reaches the server.
func (c *Client) SubmitStep(ctx context.Context, step onboarding.Step, fields onboarding.Fields) (onboarding.Step, error) {
	if step == onboarding.StepEmailVerification {
		resp, err := c.CheckVerified(ctx)
		if err != nil {
			return step, err
		}
		if !resp.Verified {
			return resp.Step, onboarding.ErrEmailNotConfirmed
		}
		return resp.Step, nil
	}
	if err := onboarding.Validate(step, fields); err != nil {
		return step, err
	}

	var resp handler.StepResponse
	if err := c.do(ctx, http.MethodPost, "/onboarding/"+url.PathEscape(string(step)), fields, &resp); err != nil {
		return step, err
	}
	return resp.Step, nil
}

// endregion

// region --- profile ---

func (c *Client) LoadProfile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/profiles/me", nil, &p); err != nil {
		return nil, err
	}
	c.store.Dispatch(ProfileLoaded{Profile: p})
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in profile.Input) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodPut, "/profiles/me", in, &p); err != nil {
		return nil, err
	}
	c.store.Dispatch(ProfileLoaded{Profile: p})
	return &p, nil
}

// endregion

// region --- activities ---

// LoadActivities replaces the loaded activities with the upcoming ones, soonest first.
func (c *Client) LoadActivities(ctx context.Context) ([]handler.ActivityResponse, error) {
	var resp handler.ActivityListResponse
	if err := c.do(ctx, http.MethodGet, "/activities", nil, &resp); err != nil {
		return nil, err
	}
	list := append(resp.HostingOrJoined, resp.Available...)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Time.Before(list[j].Time) })
	c.store.Dispatch(ActivitiesLoaded{Activities: list})
	return list, nil
}

// Partition splits the loaded activities for the signed-in user.
func (c *Client) Partition() (hostingOrJoined, available []models.Activity) {
	state := c.store.Snapshot()
	var viewerID string
	if state.Session != nil {
		viewerID = state.Session.User.ID
	}
	list := make([]models.Activity, 0, len(state.Activities))
	for _, a := range state.Activities {
		list = append(list, a.Activity)
	}
	return membership.Partition(list, viewerID)
}

func (c *Client) CreateActivity(ctx context.Context, in handler.ActivityInput) (*handler.ActivityResponse, error) {
	var a handler.ActivityResponse
	if err := c.do(ctx, http.MethodPost, "/activities", in, &a); err != nil {
		return nil, err
	}
	c.store.Dispatch(ActivityCreated{Activity: a})
	return &a, nil
}

// PerformAction runs the membership action the signed-in user is offered on
// a loaded activity, then reloads the list. Failures come back as *ActionError
// and leave the state as it was.
func (c *Client) PerformAction(ctx context.Context, activityID string) (membership.ActionKind, error) {
	state := c.store.Snapshot()
	if state.Session == nil {
		return membership.ActionNone, ErrNotSignedIn
	}
	var target *models.Activity
	for _, a := range state.Activities {
		if a.ID == activityID {
			target = &a.Activity
			break
		}
	}
	if target == nil {
		return membership.ActionNone, ErrUnknownActivity
	}

	action := membership.Classify(*target, state.Session.User.ID).Action
	if !c.store.TryStart(activityID, action) {
		return membership.ActionNone, ErrActionInFlight
	}
	defer c.store.Dispatch(ActionFinished{ActivityID: activityID})

	var resp handler.MembershipResponse
	if err := c.do(ctx, http.MethodPost, "/activities/"+url.PathEscape(activityID)+"/membership", nil, &resp); err != nil {
		return action, &ActionError{Title: action.FailureTitle(), Message: MessageOr(err, action.FallbackMessage()), Err: err}
	}
	if _, err := c.LoadActivities(ctx); err != nil {
		return resp.Action, fmt.Errorf("refresh activities: %w", err)
	}
	return resp.Action, nil
}

// endregion

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
