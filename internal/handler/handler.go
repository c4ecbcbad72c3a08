// Package handler exposes the services over HTTP.
package handler

import (
	"trailmate/backend/internal/activity"
	"trailmate/backend/internal/auth"
	"trailmate/backend/internal/hub"
	"trailmate/backend/internal/onboarding"
	"trailmate/backend/internal/profile"
	"trailmate/backend/internal/storage"
)

// Handler holds the services behind the HTTP routes.
type Handler struct {
	Auth       *auth.Service
	Onboarding *onboarding.Service
	Profiles   *profile.Service
	Activities *activity.Service
	Avatars    *storage.Bucket
	Hub        *hub.Hub

	// AvatarMaxBytes caps avatar uploads. Zero means defaultAvatarMaxBytes.
	AvatarMaxBytes int64
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// MessageResponse is returned by endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message" example:"Verification email sent!"`
}
