package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"trailmate/backend/internal/auth"
	"trailmate/backend/internal/onboarding"
)

// region --- DTOs ---

// OnboardingStateResponse is the user's position in the wizard.
type OnboardingStateResponse struct {
	Step      onboarding.Step   `json:"step" example:"basic_info"`
	Index     int               `json:"index" example:"2"`
	Steps     []onboarding.Step `json:"steps"`
	Completed bool              `json:"completed"`
}

// VerifyEmailResponse reports whether the account's email is confirmed.
type VerifyEmailResponse struct {
	Verified bool            `json:"verified"`
	Step     onboarding.Step `json:"step" example:"user_type"`
}

// StepResponse is the step recorded after a successful submission.
type StepResponse struct {
	Step onboarding.Step `json:"step" example:"location"`
}

// OnboardingErrorResponse is returned when a submission is rejected.
type OnboardingErrorResponse struct {
	Error          string          `json:"error" example:"Please fill in all fields"`
	OnboardingStep onboarding.Step `json:"onboarding_step,omitempty" example:"basic_info"`
}

func newOnboardingState(step onboarding.Step) OnboardingStateResponse {
	return OnboardingStateResponse{
		Step:      step,
		Index:     step.Index(),
		Steps:     onboarding.Steps(),
		Completed: step.Terminal(),
	}
}

// endregion

// region --- Onboarding Handlers ---

// GetOnboarding godoc
// @Summary      Get onboarding state
// @Description  Returns the step the signed-in user should be routed to.
// @Tags         onboarding
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} OnboardingStateResponse
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Failure      500 {object} ErrorResponse "Failed to fetch profile"
// @Router       /onboarding [get]
func (h *Handler) GetOnboarding(c *gin.Context) {
	step, err := h.Onboarding.Current(c.Request.Context(), auth.UserID(c))
	if err != nil {
		log.Printf("onboarding state: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}
	c.JSON(http.StatusOK, newOnboardingState(step))
}

// VerifyEmail godoc
// @Summary      Check email verification
// @Description  Re-reads the account's confirmation state. When confirmed, onboarding advances to user type.
// @Tags         onboarding
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} VerifyEmailResponse
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Failure      500 {object} ErrorResponse "Failed to check verification status"
// @Router       /onboarding/verify-email [post]
func (h *Handler) VerifyEmail(c *gin.Context) {
	verified, step, err := h.Onboarding.CheckVerified(c.Request.Context(), auth.UserID(c))
	if err != nil {
		log.Printf("verify email: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check verification status"})
		return
	}
	c.JSON(http.StatusOK, VerifyEmailResponse{Verified: verified, Step: step})
}

// SubmitOnboardingStep godoc
// @Summary      Submit an onboarding step
// @Description  Validates the step's fields and, when the step is the user's current one, records the next step.
// @Tags         onboarding
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        step  path      string            true "Step being submitted" Enums(email_verification, user_type, basic_info, location, bio, notifications)
// @Param        input body      onboarding.Fields true "Step fields"
// @Success      200   {object}  StepResponse
// @Failure      400   {object}  OnboardingErrorResponse "Validation failed"
// @Failure      401   {object}  ErrorResponse "Unauthorized"
// @Failure      409   {object}  OnboardingErrorResponse "Username taken or step out of order"
// @Failure      500   {object}  OnboardingErrorResponse "Failed to update profile"
// @Router       /onboarding/{step} [post]
func (h *Handler) SubmitOnboardingStep(c *gin.Context) {
	step, err := onboarding.ParseStep(c.Param("step"))
	if err != nil {
		c.JSON(http.StatusBadRequest, OnboardingErrorResponse{Error: err.Error()})
		return
	}

	var fields onboarding.Fields
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&fields); err != nil {
			c.JSON(http.StatusBadRequest, OnboardingErrorResponse{Error: err.Error(), OnboardingStep: step})
			return
		}
	}

	next, err := h.Onboarding.Submit(c.Request.Context(), auth.UserID(c), step, fields)
	if err == nil {
		c.JSON(http.StatusOK, StepResponse{Step: next})
		return
	}

	switch onboarding.Classify(err) {
	case onboarding.KindValidation:
		c.JSON(http.StatusBadRequest, OnboardingErrorResponse{Error: err.Error(), OnboardingStep: next})
	case onboarding.KindConflict:
		c.JSON(http.StatusConflict, OnboardingErrorResponse{Error: err.Error(), OnboardingStep: next})
	default:
		log.Printf("onboarding step %s: %v", step, err)
		c.JSON(http.StatusInternalServerError, OnboardingErrorResponse{Error: step.FailureMessage(), OnboardingStep: next})
	}
}

// endregion
