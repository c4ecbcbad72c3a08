package auth

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"trailmate/backend/internal/onboarding"
)

// StepResolver reports where a user is in onboarding.
type StepResolver interface {
	Current(ctx context.Context, userID string) (onboarding.Step, error)
}

// OnboardedMiddleware lets through only users who finished onboarding.
// It must be used AFTER the standard AuthMiddleware.
func OnboardedMiddleware(steps StepResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			// This should not happen if AuthMiddleware is used before it
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		step, err := steps.Current(c.Request.Context(), userID)
		if err != nil {
			log.Printf("onboarding lookup for %s: %v", userID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
			return
		}

		if !step.Terminal() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Please finish onboarding first", "onboarding_step": step})
			return
		}

		c.Next()
	}
}
