package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const issueLimitWindow = 24 * time.Hour

// IssueRateLimiter caps reports per caller per day. Authenticated callers are
// keyed by user ID, anonymous ones by client IP. A nil client or a
// non-positive limit disables limiting.
func IssueRateLimiter(client *redis.Client, queuePrefix string, limit int, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}

		// Create individual key for each caller
		key := queuePrefix + ":ip:" + c.ClientIP()
		if userID := UserID(c); userID != nil {
			key = queuePrefix + ":user:" + *userID
		}

		ctx := c.Request.Context()
		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Error().Err(err).Str("key", key).Msg("redis error incrementing count")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			c.Abort()
			return
		}

		// Set TTL only for the first increment
		if count == 1 {
			if err := client.Expire(ctx, key, issueLimitWindow).Err(); err != nil {
				logger.Error().Err(err).Str("key", key).Msg("redis error setting TTL")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
				c.Abort()
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := client.TTL(ctx, key).Result()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
