package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"trailmate/backend/internal/activity"
	"trailmate/backend/internal/auth"
	"trailmate/backend/internal/membership"
	"trailmate/backend/internal/models"
)

const membershipPreviewSize = membership.DefaultMaxVisible

// region --- DTOs ---

// ActivityInput defines the structure for creating or editing an activity.
type ActivityInput struct {
	Name    string       `json:"name" example:"Sunrise ridge run"`
	Sport   models.Sport `json:"sport" example:"trail running"`
	Time    time.Time    `json:"time" example:"2026-11-02T07:30:00Z"`
	Details *string      `json:"details" example:"Meet at the north trailhead."`
}

func (in ActivityInput) toService() activity.Input {
	return activity.Input{Name: in.Name, Sport: in.Sport, Time: in.Time, Details: in.Details}
}

// ActionResponse describes the membership action offered to the viewer.
type ActionResponse struct {
	Kind            membership.ActionKind `json:"kind" example:"join_activity"`
	Label           string                `json:"label" example:"Join activity"`
	FailureTitle    string                `json:"failure_title" example:"Join failed"`
	FallbackMessage string                `json:"fallback_message" example:"Failed to join activity."`
}

// ViewerResponse is the viewer's relationship to an activity.
type ViewerResponse struct {
	IsHost        bool            `json:"is_host"`
	IsParticipant bool            `json:"is_participant"`
	CanEdit       bool            `json:"can_edit"`
	Action        *ActionResponse `json:"action,omitempty"`
}

// ParticipantResponse is one roster entry.
type ParticipantResponse struct {
	UserID        string                     `json:"user_id"`
	Role          models.ParticipantRole     `json:"role" example:"host"`
	JoinedAt      time.Time                  `json:"joined_at"`
	DisplayName   string                     `json:"display_name" example:"Alex Moreau"`
	Initials      string                     `json:"initials" example:"AM"`
	Profile       *models.ParticipantProfile `json:"profile,omitempty"`
	AvatarDataURL string                     `json:"avatar_data_url,omitempty"`
}

// RosterResponse is the host-first roster cut to a number of visible entries.
type RosterResponse struct {
	Visible    []ParticipantResponse `json:"visible"`
	ExtraCount int                   `json:"extra_count" example:"3"`
}

// ActivityResponse is an activity decorated for the viewer.
type ActivityResponse struct {
	models.Activity
	Preview RosterResponse `json:"participant_preview"`
	Viewer  ViewerResponse `json:"viewer"`
}

// ActivityListResponse splits upcoming activities for the viewer.
type ActivityListResponse struct {
	HostingOrJoined []ActivityResponse `json:"hosting_or_joined"`
	Available       []ActivityResponse `json:"available"`
}

// MembershipResponse reports the membership action that was performed.
type MembershipResponse struct {
	Action membership.ActionKind `json:"action" example:"leave_activity"`
	Label  string                `json:"label" example:"Leave activity"`
}

// MembershipErrorResponse is returned when a membership action fails.
type MembershipErrorResponse struct {
	Error string `json:"error" example:"Failed to leave activity."`
	Title string `json:"title,omitempty" example:"Leave failed"`
}

func newActionResponse(kind membership.ActionKind) *ActionResponse {
	if kind == membership.ActionNone {
		return nil
	}
	return &ActionResponse{
		Kind:            kind,
		Label:           kind.Label(),
		FailureTitle:    kind.FailureTitle(),
		FallbackMessage: kind.FallbackMessage(),
	}
}

func newParticipantResponse(p models.ActivityParticipant) ParticipantResponse {
	label := membership.DisplayLabel(p.Profile, p.UserID)
	return ParticipantResponse{
		UserID:      p.UserID,
		Role:        p.Role,
		JoinedAt:    p.JoinedAt,
		DisplayName: label,
		Initials:    membership.Initials(label),
		Profile:     p.Profile,
	}
}

func newRosterResponse(participants []models.ActivityParticipant, maxVisible int) RosterResponse {
	visible, extra := membership.SortParticipantsForDisplay(participants, maxVisible)
	out := RosterResponse{Visible: make([]ParticipantResponse, 0, len(visible)), ExtraCount: extra}
	for _, p := range visible {
		out.Visible = append(out.Visible, newParticipantResponse(p))
	}
	return out
}

func newActivityResponse(a models.Activity, viewerID string, maxVisible int) ActivityResponse {
	cls := membership.Classify(a, viewerID)
	if a.Participants == nil {
		a.Participants = []models.ActivityParticipant{}
	}
	return ActivityResponse{
		Activity: a,
		Preview:  newRosterResponse(a.Participants, maxVisible),
		Viewer: ViewerResponse{
			IsHost:        cls.IsHost,
			IsParticipant: cls.IsParticipant,
			CanEdit:       cls.CanEdit,
			Action:        newActionResponse(cls.Action),
		},
	}
}

// endregion

// maxVisibleParam reads ?max_visible, falling back to def.
func maxVisibleParam(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("max_visible"))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func activityError(c *gin.Context, err error, fallback string) {
	var verr *activity.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, activity.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": activity.ErrNotFound.Error()})
	case errors.Is(err, activity.ErrNoViewer):
		c.JSON(http.StatusUnauthorized, gin.H{"error": activity.ErrNoViewer.Error()})
	case errors.Is(err, activity.ErrNotHost):
		c.JSON(http.StatusForbidden, gin.H{"error": activity.ErrNotHost.Error()})
	case errors.Is(err, activity.ErrHostCannotLeave):
		c.JSON(http.StatusConflict, gin.H{"error": activity.ErrHostCannotLeave.Error()})
	case errors.Is(err, activity.ErrCreatedNotLoaded):
		log.Printf("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": activity.ErrCreatedNotLoaded.Error()})
	case errors.Is(err, activity.ErrUpdatedNotLoaded):
		log.Printf("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": activity.ErrUpdatedNotLoaded.Error()})
	default:
		log.Printf("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// region --- Activity Handlers ---

// ListActivities godoc
// @Summary      List upcoming activities
// @Description  Returns upcoming activities, soonest first, split into those the viewer hosts or joined and those still available.
// @Tags         activities
// @Produce      json
// @Param        max_visible query    int false "Roster preview size" default(5)
// @Success      200         {object} ActivityListResponse
// @Failure      500         {object} ErrorResponse "Failed to fetch activities"
// @Router       /activities [get]
func (h *Handler) ListActivities(c *gin.Context) {
	list, err := h.Activities.ListUpcoming(c.Request.Context())
	if err != nil {
		activityError(c, err, "Failed to fetch activities")
		return
	}

	viewerID := auth.UserID(c)
	maxVisible := maxVisibleParam(c, membershipPreviewSize)
	mine, available := membership.Partition(list, viewerID)

	resp := ActivityListResponse{
		HostingOrJoined: make([]ActivityResponse, 0, len(mine)),
		Available:       make([]ActivityResponse, 0, len(available)),
	}
	for _, a := range mine {
		resp.HostingOrJoined = append(resp.HostingOrJoined, newActivityResponse(a, viewerID, maxVisible))
	}
	for _, a := range available {
		resp.Available = append(resp.Available, newActivityResponse(a, viewerID, maxVisible))
	}
	c.JSON(http.StatusOK, resp)
}

// GetActivity godoc
// @Summary      Get an activity
// @Description  Returns one activity with its participants, decorated for the viewer.
// @Tags         activities
// @Produce      json
// @Param        id          path     string true  "Activity ID"
// @Param        max_visible query    int    false "Roster preview size" default(5)
// @Success      200         {object} ActivityResponse
// @Failure      404         {object} ErrorResponse "Activity not found"
// @Router       /activities/{id} [get]
func (h *Handler) GetActivity(c *gin.Context) {
	a, err := h.Activities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		activityError(c, err, "Failed to fetch activity")
		return
	}
	c.JSON(http.StatusOK, newActivityResponse(*a, auth.UserID(c), maxVisibleParam(c, membershipPreviewSize)))
}

// GetParticipants godoc
// @Summary      Get an activity roster
// @Description  Returns participants with the host first. With with_avatars=true, stored avatars are inlined as data URLs.
// @Tags         activities
// @Produce      json
// @Param        id           path     string true  "Activity ID"
// @Param        max_visible  query    int    false "Number of entries to return (all when omitted)"
// @Param        with_avatars query    bool   false "Inline avatars"
// @Success      200          {object} RosterResponse
// @Failure      404          {object} ErrorResponse "Activity not found"
// @Router       /activities/{id}/participants [get]
func (h *Handler) GetParticipants(c *gin.Context) {
	a, err := h.Activities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		activityError(c, err, "Failed to fetch participants")
		return
	}

	roster := newRosterResponse(a.Participants, maxVisibleParam(c, len(a.Participants)))
	if c.Query("with_avatars") == "true" && h.Avatars != nil {
		for i, p := range roster.Visible {
			if p.Profile == nil || p.Profile.AvatarURL == nil {
				continue
			}
			if url, ok := h.Avatars.Materialize(c.Request.Context(), *p.Profile.AvatarURL); ok {
				roster.Visible[i].AvatarDataURL = url
			}
		}
	}
	c.JSON(http.StatusOK, roster)
}

// CreateActivity godoc
// @Summary      Create an activity
// @Description  Creates an activity hosted by the signed-in user and adds them to its roster.
// @Tags         activities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body      ActivityInput true "Activity"
// @Success      201   {object}  ActivityResponse
// @Failure      400   {object}  ErrorResponse "Invalid input"
// @Failure      403   {object}  ErrorResponse "Please finish onboarding first"
// @Failure      500   {object}  ErrorResponse "Failed to create activity."
// @Router       /activities [post]
func (h *Handler) CreateActivity(c *gin.Context) {
	var input ActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := auth.UserID(c)
	a, err := h.Activities.Create(c.Request.Context(), userID, input.toService())
	if err != nil {
		activityError(c, err, "Failed to create activity.")
		return
	}
	c.JSON(http.StatusCreated, newActivityResponse(*a, userID, membershipPreviewSize))
}

// UpdateActivity godoc
// @Summary      Update an activity (Host only)
// @Description  Replaces the activity's name, sport, time and details.
// @Tags         activities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true "Activity ID"
// @Param        input body      ActivityInput true "Activity"
// @Success      200   {object}  ActivityResponse
// @Failure      400   {object}  ErrorResponse "Invalid input"
// @Failure      403   {object}  ErrorResponse "Only the host can change this activity"
// @Failure      404   {object}  ErrorResponse "Activity not found"
// @Router       /activities/{id} [put]
func (h *Handler) UpdateActivity(c *gin.Context) {
	var input ActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := auth.UserID(c)
	a, err := h.Activities.Update(c.Request.Context(), userID, c.Param("id"), input.toService())
	if err != nil {
		activityError(c, err, "Failed to update activity.")
		return
	}
	c.JSON(http.StatusOK, newActivityResponse(*a, userID, membershipPreviewSize))
}

// CompleteActivity godoc
// @Summary      Mark an activity completed (Host only)
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Activity ID"
// @Success      200 {object} ActivityResponse
// @Failure      403 {object} ErrorResponse "Only the host can change this activity"
// @Failure      404 {object} ErrorResponse "Activity not found"
// @Router       /activities/{id}/complete [post]
func (h *Handler) CompleteActivity(c *gin.Context) {
	userID := auth.UserID(c)
	a, err := h.Activities.Complete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		activityError(c, err, "Failed to complete activity.")
		return
	}
	c.JSON(http.StatusOK, newActivityResponse(*a, userID, membershipPreviewSize))
}

// JoinActivity godoc
// @Summary      Join an activity
// @Description  Adds the signed-in user as a participant. Joining twice is a no-op.
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Activity ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse "Activity not found"
// @Failure      500 {object} ErrorResponse "Failed to join activity."
// @Router       /activities/{id}/join [post]
func (h *Handler) JoinActivity(c *gin.Context) {
	if err := h.Activities.Join(c.Request.Context(), c.Param("id"), auth.UserID(c)); err != nil {
		activityError(c, err, membership.ActionJoinActivity.FallbackMessage())
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Joined activity"})
}

// LeaveActivity godoc
// @Summary      Leave an activity
// @Description  Removes the signed-in user from the roster. The host cannot leave.
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Activity ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse "Activity not found"
// @Failure      409 {object} ErrorResponse "The host cannot leave their own activity. Cancel it instead."
// @Router       /activities/{id}/leave [post]
func (h *Handler) LeaveActivity(c *gin.Context) {
	if err := h.Activities.Leave(c.Request.Context(), c.Param("id"), auth.UserID(c)); err != nil {
		activityError(c, err, membership.ActionLeaveActivity.FallbackMessage())
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Left activity"})
}

// CancelActivity godoc
// @Summary      Cancel an activity (Host only)
// @Description  Removes every participant and then the activity itself.
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Activity ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse "Only the host can change this activity"
// @Failure      404 {object} ErrorResponse "Activity not found"
// @Router       /activities/{id} [delete]
func (h *Handler) CancelActivity(c *gin.Context) {
	if err := h.Activities.Cancel(c.Request.Context(), c.Param("id"), auth.UserID(c)); err != nil {
		activityError(c, err, membership.ActionCancelEvent.FallbackMessage())
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Activity cancelled"})
}

// PerformMembershipAction godoc
// @Summary      Perform the offered membership action
// @Description  Runs whichever action the viewer is offered: cancel for the host, leave for a participant, join otherwise.
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Activity ID"
// @Success      200 {object} MembershipResponse
// @Failure      404 {object} ErrorResponse "Activity not found"
// @Failure      500 {object} MembershipErrorResponse "Action failed"
// @Router       /activities/{id}/membership [post]
func (h *Handler) PerformMembershipAction(c *gin.Context) {
	action, err := h.Activities.Perform(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err == nil {
		c.JSON(http.StatusOK, MembershipResponse{Action: action, Label: action.Label()})
		return
	}
	if action == membership.ActionNone || errors.Is(err, activity.ErrNotFound) {
		activityError(c, err, "Failed to update membership.")
		return
	}

	var verr *activity.ValidationError
	status := http.StatusInternalServerError
	message := action.FallbackMessage()
	switch {
	case errors.As(err, &verr):
		status, message = http.StatusBadRequest, verr.Message
	case errors.Is(err, activity.ErrNotHost):
		status, message = http.StatusForbidden, err.Error()
	default:
		log.Printf("membership action %s on %s: %v", action, c.Param("id"), err)
	}
	c.JSON(status, MembershipErrorResponse{Error: message, Title: action.FailureTitle()})
}

// endregion
