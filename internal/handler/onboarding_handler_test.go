package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailmate/backend/internal/onboarding"
)

func TestOnboardingWizard(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.signUp(t, "Runner@Example.com")

	state := decode[OnboardingStateResponse](t, env.do(t, http.MethodGet, "/api/v1/onboarding", token, nil))
	assert.Equal(t, onboarding.StepEmailVerification, state.Step)
	assert.Equal(t, 0, state.Index)
	assert.Len(t, state.Steps, 7)

	t.Run("unverified email stays put", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/onboarding/verify-email", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[VerifyEmailResponse](t, rec)
		assert.False(t, got.Verified)
		assert.Equal(t, onboarding.StepEmailVerification, got.Step)

		rec = env.submit(t, token, onboarding.StepEmailVerification, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("skipping ahead is rejected", func(t *testing.T) {
		rec := env.submit(t, token, onboarding.StepBasicInfo, gin.H{"full_name": "Alex", "username": "alexruns"})
		require.Equal(t, http.StatusConflict, rec.Code)
		got := decode[OnboardingErrorResponse](t, rec)
		assert.Equal(t, onboarding.StepEmailVerification, got.OnboardingStep)
	})

	rec := env.do(t, http.MethodGet, "/api/v1/auth/confirm?token="+env.mailer.token(t, "runner@example.com"), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/onboarding/verify-email", token, nil)
	verified := decode[VerifyEmailResponse](t, rec)
	assert.True(t, verified.Verified)
	assert.Equal(t, onboarding.StepUserType, verified.Step)

	t.Run("validation messages", func(t *testing.T) {
		rec := env.submit(t, token, onboarding.StepUserType, gin.H{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Please choose how you will use the app", decode[OnboardingErrorResponse](t, rec).Error)

		rec = env.submit(t, token, "nope", gin.H{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	steps := []struct {
		step   onboarding.Step
		fields gin.H
		next   onboarding.Step
	}{
		{onboarding.StepUserType, gin.H{"is_teacher": true}, onboarding.StepBasicInfo},
		{onboarding.StepBasicInfo, gin.H{"full_name": " Alex Moreau ", "username": "alexruns"}, onboarding.StepLocation},
		{onboarding.StepLocation, gin.H{"city": "Grenoble", "country": "France"}, onboarding.StepBio},
		{onboarding.StepBio, gin.H{"bio": "Trail runner and weekend hiker."}, onboarding.StepNotifications},
		{onboarding.StepNotifications, gin.H{"push_opt_in": true}, onboarding.StepCompleted},
	}
	for _, s := range steps {
		rec := env.submit(t, token, s.step, s.fields)
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", s.step, rec.Body.String())
		assert.Equal(t, s.next, decode[StepResponse](t, rec).Step)
	}

	state = decode[OnboardingStateResponse](t, env.do(t, http.MethodGet, "/api/v1/onboarding", token, nil))
	assert.True(t, state.Completed)
	assert.Equal(t, 6, state.Index)

	settings, ok := env.store.Settings(userID)
	require.True(t, ok)
	assert.True(t, settings.PushOptIn)

	p, err := env.store.FindProfile(t.Context(), userID)
	require.NoError(t, err)
	require.NotNil(t, p.FullName)
	assert.Equal(t, "Alex Moreau", *p.FullName)
	require.NotNil(t, p.OnboardingCompletedAt)
	assert.WithinDuration(t, time.Now(), *p.OnboardingCompletedAt, time.Minute)

	rec = env.submit(t, token, onboarding.StepNotifications, gin.H{})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOnboardingUsernameTaken(t *testing.T) {
	env := newTestEnv(t)
	env.onboardedUser(t, "first@example.com", "First Runner", "trailboss")

	token, _ := env.signUp(t, "second@example.com")
	env.do(t, http.MethodGet, "/api/v1/auth/confirm?token="+env.mailer.token(t, "second@example.com"), "", nil)
	env.do(t, http.MethodPost, "/api/v1/onboarding/verify-email", token, nil)
	require.Equal(t, http.StatusOK, env.submit(t, token, onboarding.StepUserType, gin.H{"is_teacher": false}).Code)

	rec := env.submit(t, token, onboarding.StepBasicInfo, gin.H{"full_name": "Second", "username": "trailboss"})
	require.Equal(t, http.StatusConflict, rec.Code)
	got := decode[OnboardingErrorResponse](t, rec)
	assert.Equal(t, "Username already taken. Please choose another one.", got.Error)
	assert.Equal(t, onboarding.StepBasicInfo, got.OnboardingStep)

	state := decode[OnboardingStateResponse](t, env.do(t, http.MethodGet, "/api/v1/onboarding", token, nil))
	assert.Equal(t, onboarding.StepBasicInfo, state.Step)
}

func TestOnboardingRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/v1/onboarding", "", nil).Code)
}
