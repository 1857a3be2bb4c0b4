package controllers

import (
	"net/http"

	"civictrack/middlewares"
	"civictrack/models"
	"civictrack/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const auditLogWarning = "status updated but the audit log entry could not be recorded"

type AdminController struct {
	issues    *services.IssueService
	users     *services.UserService
	analytics *services.AnalyticsService
	logger    zerolog.Logger
}

func NewAdminController(issues *services.IssueService, users *services.UserService, analytics *services.AnalyticsService, logger zerolog.Logger) *AdminController {
	return &AdminController{
		issues:    issues,
		users:     users,
		analytics: analytics,
		logger:    logger,
	}
}

// UpdateIssueStatus moves an issue to a new status and records the change.
// When only the audit entry fails the response is still 200 and carries a
// warning.
func (ac *AdminController) UpdateIssueStatus(c *gin.Context) {
	var input struct {
		Status models.IssueStatus `json:"status" binding:"required,issue_status"`
		Note   *string            `json:"note" binding:"omitempty,max=1000"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	result, err := ac.issues.UpdateStatus(c.Request.Context(), c.Param("id"), input.Status, input.Note, middlewares.UserID(c))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	if result.Partial() {
		reportError(c, result.LogErr)
		c.JSON(http.StatusOK, gin.H{
			"issue":   result.Issue,
			"log":     nil,
			"warning": auditLogWarning,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"issue": result.Issue,
		"log":   result.Log,
	})
}

func (ac *AdminController) FlagIssue(c *gin.Context) {
	issue, err := ac.issues.Flag(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (ac *AdminController) ListUsers(c *gin.Context) {
	profiles, err := ac.users.List(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles})
}

// BanUser bans the account with the given user ID. There is no unban.
func (ac *AdminController) BanUser(c *gin.Context) {
	profile, err := ac.users.Ban(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (ac *AdminController) GetAnalytics(c *gin.Context) {
	analytics, err := ac.analytics.Compute(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}
