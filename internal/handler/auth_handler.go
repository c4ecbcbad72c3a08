package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trailmate/backend/internal/auth"
	"trailmate/backend/internal/models"
)

// region --- DTOs ---

// CredentialsInput is used for both sign up and sign in.
type CredentialsInput struct {
	Email    string `json:"email" binding:"required,email" example:"runner@example.com"`
	Password string `json:"password" binding:"required,min=6" example:"password123"`
}

// ResendInput asks for a new confirmation link.
type ResendInput struct {
	Type  string `json:"type" binding:"required" example:"signup"`
	Email string `json:"email" binding:"required,email" example:"runner@example.com"`
}

// UserResponse is the account as seen by its owner.
type UserResponse struct {
	ID               string     `json:"id" example:"6f1c2a9e-3c4d-4b8e-9a51-0d7e2f1b3c4d"`
	Email            string     `json:"email" example:"runner@example.com"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// SessionResponse carries the access token issued on sign up and sign in.
type SessionResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
	Message     string       `json:"message,omitempty" example:"Please check your inbox for email verification!"`
}

func newUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		EmailConfirmedAt: u.EmailConfirmedAt,
		CreatedAt:        u.CreatedAt,
	}
}

func newSessionResponse(s *auth.Session) SessionResponse {
	return SessionResponse{AccessToken: s.AccessToken, User: newUserResponse(s.User)}
}

// endregion

// region --- Auth Handlers ---

// SignUp godoc
// @Summary      Sign up
// @Description  Creates an account, starts onboarding at email verification and mails a confirmation link.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body      CredentialsInput true "Sign up credentials"
// @Success      201   {object}  SessionResponse
// @Failure      400   {object}  ErrorResponse "Invalid input"
// @Failure      409   {object}  ErrorResponse "User already registered"
// @Failure      500   {object}  ErrorResponse "Failed to sign up"
// @Router       /auth/signup [post]
func (h *Handler) SignUp(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.Auth.SignUp(c.Request.Context(), input.Email, input.Password)
	if errors.Is(err, auth.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("sign up: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign up"})
		return
	}

	resp := newSessionResponse(session)
	resp.Message = "Please check your inbox for email verification!"
	c.JSON(http.StatusCreated, resp)
}

// SignIn godoc
// @Summary      Sign in
// @Description  Checks the credentials and returns a session.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body      CredentialsInput true "Sign in credentials"
// @Success      200   {object}  SessionResponse
// @Failure      400   {object}  ErrorResponse "Invalid input"
// @Failure      401   {object}  ErrorResponse "Invalid login credentials"
// @Router       /auth/signin [post]
func (h *Handler) SignIn(c *gin.Context) {
	var input CredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.Auth.SignIn(c.Request.Context(), input.Email, input.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("sign in: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

// ResendConfirmation godoc
// @Summary      Resend the confirmation email
// @Description  Issues a new confirmation link. Only the "signup" type is supported.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body      ResendInput true "Resend request"
// @Success      200   {object}  MessageResponse
// @Failure      400   {object}  ErrorResponse "Unsupported type"
// @Failure      404   {object}  ErrorResponse "Unable to retrieve user email."
// @Failure      409   {object}  ErrorResponse "Email address is already confirmed"
// @Failure      500   {object}  ErrorResponse "Failed to resend verification email"
// @Router       /auth/resend [post]
func (h *Handler) ResendConfirmation(c *gin.Context) {
	var input ResendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Auth.Resend(c.Request.Context(), input.Type, input.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, MessageResponse{Message: "Verification email sent!"})
	case errors.Is(err, auth.ErrUnsupportedResend):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrUnknownUser):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrAlreadyConfirmed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("resend confirmation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resend verification email"})
	}
}

// ConfirmEmail godoc
// @Summary      Confirm an email address
// @Description  Consumes the token from a confirmation link.
// @Tags         auth
// @Produce      json
// @Param        token query     string true "Confirmation token"
// @Success      200   {object}  UserResponse
// @Failure      400   {object}  ErrorResponse "Confirmation link is invalid or has expired"
// @Router       /auth/confirm [get]
func (h *Handler) ConfirmEmail(c *gin.Context) {
	user, err := h.Auth.Confirm(c.Request.Context(), c.Query("token"))
	if errors.Is(err, auth.ErrInvalidConfirmation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("confirm email: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm email"})
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*user))
}

// GetUser godoc
// @Summary      Get the signed-in account
// @Description  Returns the account behind the bearer token, including its email confirmation state.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Failure      404 {object} ErrorResponse "Unable to retrieve user email."
// @Router       /auth/user [get]
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Auth.User(c.Request.Context(), auth.UserID(c))
	if errors.Is(err, auth.ErrUnknownUser) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("get user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*user))
}

// endregion
