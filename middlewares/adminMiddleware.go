package middlewares

import (
	"errors"
	"net/http"
	"slices"

	"civictrack/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AdminRequired admits callers listed in adminIDs or whose profile is marked
// as admin. It must run after AuthMiddleware.
func AdminRequired(users *services.UserService, adminIDs []string, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		if slices.Contains(adminIDs, *userID) {
			c.Next()
			return
		}

		profile, err := users.Profile(c.Request.Context(), *userID)
		switch {
		case err == nil && profile.IsAdmin && !profile.Banned:
			c.Next()
			return
		case err != nil && !errors.Is(err, services.ErrNotFound):
			logger.Error().Err(err).Str("user_id", *userID).Msg("admin check failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			c.Abort()
			return
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		c.Abort()
	}
}
