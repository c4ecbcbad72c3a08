package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trailmate/backend/internal/auth"
)

// NewRouter wires every route onto a fresh engine.
func NewRouter(h *Handler, secret []byte) *gin.Engine {
	router := gin.Default()

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := auth.AuthMiddleware(secret)
	requireOnboarded := auth.OnboardedMiddleware(h.Onboarding)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/signup", h.SignUp)
			authRoutes.POST("/signin", h.SignIn)
			authRoutes.POST("/resend", h.ResendConfirmation)
			authRoutes.GET("/confirm", h.ConfirmEmail)
			authRoutes.GET("/user", requireAuth, h.GetUser)
		}

		// Onboarding routes (protected)
		onboardingRoutes := apiV1.Group("/onboarding")
		onboardingRoutes.Use(requireAuth)
		{
			onboardingRoutes.GET("", h.GetOnboarding)
			onboardingRoutes.POST("/verify-email", h.VerifyEmail)
			onboardingRoutes.POST("/:step", h.SubmitOnboardingStep)
		}

		// Profile routes (protected)
		profileRoutes := apiV1.Group("/profiles")
		profileRoutes.Use(requireAuth)
		{
			profileRoutes.GET("/me", h.GetMyProfile)
			profileRoutes.PUT("/me", h.UpdateMyProfile)
			profileRoutes.POST("/me/avatar", h.UploadAvatar)
			profileRoutes.GET("/me/activities/history", h.GetActivityHistory)
			profileRoutes.GET("/:id", h.GetProfileByID)
		}
		apiV1.GET("/avatars/*path", requireAuth, h.GetAvatar)

		// Public activity routes, personalised when a token is sent
		activityRoutes := apiV1.Group("/activities")
		activityRoutes.Use(auth.OptionalAuthMiddleware(secret))
		{
			activityRoutes.GET("", h.ListActivities)
			activityRoutes.GET("/events", h.StreamFeed) // Must be before /:id
			activityRoutes.GET("/:id", h.GetActivity)
			activityRoutes.GET("/:id/participants", h.GetParticipants)
			activityRoutes.GET("/:id/events", h.StreamActivity)
		}

		// Activity write routes (onboarded users only)
		hostRoutes := apiV1.Group("/activities")
		hostRoutes.Use(requireAuth, requireOnboarded)
		{
			hostRoutes.POST("", h.CreateActivity)
			hostRoutes.PUT("/:id", h.UpdateActivity)
			hostRoutes.DELETE("/:id", h.CancelActivity)
			hostRoutes.POST("/:id/join", h.JoinActivity)
			hostRoutes.POST("/:id/leave", h.LeaveActivity)
			hostRoutes.POST("/:id/complete", h.CompleteActivity)
			hostRoutes.POST("/:id/membership", h.PerformMembershipAction)
		}
	}

	return router
}
