package routes

import (
	"civictrack/middlewares"

	"github.com/gin-gonic/gin"
)

// AdminRoutes sets up the moderation and analytics routes
func AdminRoutes(rg *gin.RouterGroup, d Dependencies) {
	admin := rg.Group("/admin",
		middlewares.AuthMiddleware(d.Config.JWTSecret),
		middlewares.AdminRequired(d.Users, d.Config.AdminUserIDs, d.Logger),
	)
	{
		admin.PATCH("/issues/:id/status", d.Admin.UpdateIssueStatus)
		admin.POST("/issues/:id/flag", d.Admin.FlagIssue)
		admin.GET("/users", d.Admin.ListUsers)
		admin.POST("/users/:id/ban", d.Admin.BanUser)
		admin.GET("/analytics", d.Admin.GetAnalytics)
	}
}
