package middlewares

import (
	"net/http"
	"strings"

	authUtils "civictrack/utils"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

func bearerToken(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	if authHeader == "" {
		if cookie, err := c.Cookie("auth_token"); err == nil {
			return cookie
		}
		return ""
	}

	// Extracting token from "Bearer <token>" format
	if strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// AuthMiddleware rejects requests without a valid token.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			c.Abort()
			return
		}

		userID, err := authUtils.ParseToken(tokenString, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is sent and lets anonymous
// requests through. A token that is present but invalid is still rejected.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		userID, err := authUtils.ParseToken(tokenString, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated caller, or nil for anonymous requests.
func UserID(c *gin.Context) *string {
	val, exists := c.Get(userIDKey)
	if !exists {
		return nil
	}
	userID, ok := val.(string)
	if !ok || userID == "" {
		return nil
	}
	return &userID
}
