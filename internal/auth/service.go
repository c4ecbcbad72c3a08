package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"trailmate/backend/internal/models"
	"trailmate/backend/internal/onboarding"
	"trailmate/backend/pkg/jwt"
)

var (
	ErrEmailTaken          = errors.New("User already registered")
	ErrInvalidCredentials  = errors.New("Invalid login credentials")
	ErrInvalidConfirmation = errors.New("Confirmation link is invalid or has expired")
	ErrAlreadyConfirmed    = errors.New("Email address is already confirmed")
	ErrUnsupportedResend   = errors.New("Only signup confirmations can be resent")
	ErrUnknownUser         = errors.New("Unable to retrieve user email.")
)

// ResendSignup is the only resend type supported.
const ResendSignup = "signup"

// AccountStore is the persistence used by Service.
type AccountStore interface {
	CreateAccount(ctx context.Context, user *models.User, profile *models.Profile) error
	FindAccountByEmail(ctx context.Context, email string) (*models.User, error)
	FindAccountByID(ctx context.Context, id string) (*models.User, error)
	SetConfirmationToken(ctx context.Context, userID, token string, sentAt time.Time) error
	ConfirmEmail(ctx context.Context, token string, at time.Time) (*models.User, error)
}

// Mailer delivers account emails.
type Mailer interface {
	SendConfirmation(ctx context.Context, email, link string) error
}

// LogMailer writes confirmation links to the process log instead of sending mail.
type LogMailer struct{}

func (LogMailer) SendConfirmation(_ context.Context, email, link string) error {
	log.Printf("confirmation link for %s: %s", email, link)
	return nil
}

// Session is returned after sign up and sign in.
type Session struct {
	AccessToken string      `json:"access_token"`
	User        models.User `json:"user"`
}

// Service manages accounts and issues tokens.
type Service struct {
	store   AccountStore
	mailer  Mailer
	secret  []byte
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

func NewService(store AccountStore, mailer Mailer, secret []byte, ttl time.Duration, baseURL string) *Service {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Service{
		store:   store,
		mailer:  mailer,
		secret:  secret,
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) confirmationLink(token string) string {
	return s.baseURL + "/api/v1/auth/confirm?token=" + url.QueryEscape(token)
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := jwt.GenerateToken(s.secret, user.ID, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{AccessToken: token, User: *user}, nil
}

// SignUp creates the account with its profile, starting onboarding at email
// verification, and mails a confirmation link.
func (s *Service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := models.User{
		ID:                 uuid.NewString(),
		Email:              email,
		PasswordHash:       string(hashedPassword),
		ConfirmationToken:  uuid.NewString(),
		ConfirmationSentAt: &now,
	}
	profile := models.Profile{ID: user.ID, OnboardingStep: string(onboarding.StepEmailVerification)}

	if err := s.store.CreateAccount(ctx, &user, &profile); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	if err := s.mailer.SendConfirmation(ctx, email, s.confirmationLink(user.ConfirmationToken)); err != nil {
		log.Printf("Failed to send confirmation email to %s: %v", email, err)
	}
	return s.session(&user)
}

// SignIn checks the password and returns a fresh session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.FindAccountByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// User returns the account behind a session.
func (s *Service) User(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.FindAccountByID(ctx, id)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return user, nil
}

// Confirm marks the email behind token as verified.
func (s *Service) Confirm(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidConfirmation
	}
	user, err := s.store.ConfirmEmail(ctx, token, s.now().UTC())
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, ErrInvalidConfirmation
	}
	if err != nil {
		return nil, fmt.Errorf("confirm email: %w", err)
	}
	return user, nil
}

// Resend issues a new confirmation link. Unlike sign up, a mail failure is returned.
func (s *Service) Resend(ctx context.Context, kind, email string) error {
	if kind != ResendSignup {
		return ErrUnsupportedResend
	}
	user, err := s.store.FindAccountByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrRecordNotFound) {
		return ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if user.Confirmed() {
		return ErrAlreadyConfirmed
	}

	token := uuid.NewString()
	if err := s.store.SetConfirmationToken(ctx, user.ID, token, s.now().UTC()); err != nil {
		return fmt.Errorf("store confirmation token: %w", err)
	}
	if err := s.mailer.SendConfirmation(ctx, user.Email, s.confirmationLink(token)); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}
