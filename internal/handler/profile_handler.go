package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"trailmate/backend/internal/auth"
	"trailmate/backend/internal/models"
	"trailmate/backend/internal/profile"
	"trailmate/backend/internal/storage"
)

const defaultAvatarMaxBytes = 5 << 20

// region --- DTOs ---

// PublicProfileResponse is what other users see of a profile.
type PublicProfileResponse struct {
	ID        string  `json:"id" example:"6f1c2a9e-3c4d-4b8e-9a51-0d7e2f1b3c4d"`
	FullName  *string `json:"full_name" example:"Alex Moreau"`
	Username  *string `json:"username" example:"alexruns"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio" example:"Trail runner and weekend hiker."`
	City      *string `json:"city" example:"Grenoble"`
	Country   *string `json:"country" example:"France"`
	IsTeacher *bool   `json:"is_teacher"`
}

func newPublicProfileResponse(p models.Profile) PublicProfileResponse {
	return PublicProfileResponse{
		ID:        p.ID,
		FullName:  p.FullName,
		Username:  p.Username,
		AvatarURL: p.AvatarURL,
		Bio:       p.Bio,
		City:      p.City,
		Country:   p.Country,
		IsTeacher: p.IsTeacher,
	}
}

// endregion

func profileError(c *gin.Context, err error, fallback string) {
	var verr *profile.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, profile.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
	case errors.Is(err, profile.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// region --- Profile Handlers ---

// GetMyProfile godoc
// @Summary      Get my profile
// @Description  Returns the full profile of the signed-in user, onboarding fields included.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} models.Profile
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Failure      404 {object} ErrorResponse "Profile not found"
// @Router       /profiles/me [get]
func (h *Handler) GetMyProfile(c *gin.Context) {
	p, err := h.Profiles.Get(c.Request.Context(), auth.UserID(c))
	if err != nil {
		profileError(c, err, "Failed to fetch profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateMyProfile godoc
// @Summary      Update my profile
// @Description  Applies the profile editor form. Omitted fields are left unchanged.
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body      profile.Input true "Profile fields"
// @Success      200   {object}  models.Profile
// @Failure      400   {object}  ErrorResponse "Invalid input"
// @Failure      409   {object}  ErrorResponse "Username already taken. Please choose another one."
// @Failure      500   {object}  ErrorResponse "Failed to update profile"
// @Router       /profiles/me [put]
func (h *Handler) UpdateMyProfile(c *gin.Context) {
	var input profile.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.Profiles.Update(c.Request.Context(), auth.UserID(c), input)
	if err != nil {
		profileError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetProfileByID godoc
// @Summary      Get a profile
// @Description  Returns the public part of another user's profile.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "User ID"
// @Success      200 {object} PublicProfileResponse
// @Failure      404 {object} ErrorResponse "Profile not found"
// @Router       /profiles/{id} [get]
func (h *Handler) GetProfileByID(c *gin.Context) {
	p, err := h.Profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		profileError(c, err, "Failed to fetch profile")
		return
	}
	c.JSON(http.StatusOK, newPublicProfileResponse(*p))
}

// UploadAvatar godoc
// @Summary      Upload an avatar
// @Description  Stores the image in the avatar bucket and points the profile at it.
// @Tags         profiles
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar formData file true "Avatar image"
// @Success      200    {object}  models.Profile
// @Failure      400    {object}  ErrorResponse "avatar must be an image"
// @Failure      413    {object}  ErrorResponse "Avatar is too large"
// @Failure      500    {object}  ErrorResponse "Failed to upload avatar"
// @Failure      503    {object}  ErrorResponse "Avatar storage is unavailable"
// @Router       /profiles/me/avatar [post]
func (h *Handler) UploadAvatar(c *gin.Context) {
	if h.Avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Avatar storage is unavailable"})
		return
	}

	limit := h.AvatarMaxBytes
	if limit <= 0 {
		limit = defaultAvatarMaxBytes
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An avatar file is required"})
		return
	}
	if header.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Avatar must be %d bytes or smaller", limit)})
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Printf("open avatar upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload avatar"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		log.Printf("read avatar upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload avatar"})
		return
	}
	if int64(len(data)) > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Avatar must be %d bytes or smaller", limit)})
		return
	}

	userID := auth.UserID(c)
	key, err := storage.AvatarKey(userID, data)
	if errors.Is(err, storage.ErrNotImage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err == nil {
		err = h.Avatars.Upload(c.Request.Context(), key, data)
	}
	if err != nil {
		log.Printf("store avatar for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload avatar"})
		return
	}

	p, err := h.Profiles.SetAvatar(c.Request.Context(), userID, key)
	if err != nil {
		profileError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetAvatar godoc
// @Summary      Download an avatar
// @Description  Streams an object from the avatar bucket.
// @Tags         profiles
// @Produce      image/png,image/jpeg,image/webp
// @Security     BearerAuth
// @Param        path path     string true "Avatar key"
// @Success      200  {file}   binary
// @Failure      400  {object} ErrorResponse "invalid object path"
// @Failure      404  {object} ErrorResponse "object not found"
// @Failure      503  {object} ErrorResponse "Avatar storage is unavailable"
// @Router       /avatars/{path} [get]
func (h *Handler) GetAvatar(c *gin.Context) {
	if h.Avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Avatar storage is unavailable"})
		return
	}

	key := strings.TrimPrefix(c.Param("path"), "/")
	data, err := h.Avatars.Download(c.Request.Context(), key)
	switch {
	case err == nil:
		c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
	case errors.Is(err, storage.ErrInvalidPath):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("download avatar %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load avatar"})
	}
}

// GetActivityHistory godoc
// @Summary      Get my activity history
// @Description  Returns past activities the signed-in user hosted or joined, newest first.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        page  query    int false "Page number" default(1)
// @Param        limit query    int false "Items per page" default(10)
// @Success      200   {object} PaginatedResponse[ActivityResponse]
// @Failure      401   {object} ErrorResponse "Unauthorized"
// @Failure      500   {object} ErrorResponse "Failed to fetch activity history"
// @Router       /profiles/me/activities/history [get]
func (h *Handler) GetActivityHistory(c *gin.Context) {
	userID := auth.UserID(c)
	page, limit := pageParams(c)

	list, total, err := h.Activities.History(c.Request.Context(), userID, page, limit)
	if err != nil {
		log.Printf("activity history for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activity history"})
		return
	}

	data := make([]ActivityResponse, 0, len(list))
	for _, a := range list {
		data = append(data, newActivityResponse(a, userID, membershipPreviewSize))
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(data, total, page, limit))
}

// endregion
