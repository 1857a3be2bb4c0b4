package routes

import (
	"civictrack/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the public issue routes
func IssueRoutes(rg *gin.RouterGroup, d Dependencies) {
	issue := rg.Group("/issues", middlewares.OptionalAuth(d.Config.JWTSecret))
	{
		issue.GET("", d.Issues.ListIssues)
		issue.GET("/:id", d.Issues.GetIssue)
		issue.GET("/:id/logs", d.Issues.GetIssueLogs)
		issue.POST("", middlewares.IssueRateLimiter(d.Redis, d.Config.IssueLimitQueue, d.Config.IssueDailyLimit, d.Logger), d.Issues.CreateIssue)
		issue.POST("/:id/flag", d.Issues.FlagIssue)
	}
}

// LegacyIssueRoutes sets up the deprecated GeoJSON issue routes
func LegacyIssueRoutes(r *gin.Engine, d Dependencies) {
	issue := r.Group("/api/issues")
	{
		issue.GET("", d.Legacy.ListLegacyIssues)
		issue.POST("", middlewares.AuthMiddleware(d.Config.JWTSecret), d.Legacy.CreateLegacyIssue)
	}
}
