package controllers

import (
	"errors"
	"net/http"

	"civictrack/geo"
	"civictrack/middlewares"
	"civictrack/models"
	"civictrack/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type IssueController struct {
	issues          *services.IssueService
	users           *services.UserService
	defaultLocation models.Location
	defaultRadiusKm float64
	logger          zerolog.Logger
}

func NewIssueController(issues *services.IssueService, users *services.UserService, defaultLocation models.Location, defaultRadiusKm float64, logger zerolog.Logger) *IssueController {
	return &IssueController{
		issues:          issues,
		users:           users,
		defaultLocation: defaultLocation,
		defaultRadiusKm: defaultRadiusKm,
		logger:          logger,
	}
}

type listQuery struct {
	geo.FilterOptions
	Lat *float64 `form:"lat"`
	Lng *float64 `form:"lng"`
}

// resolveLocation picks the reference point for a listing: query
// coordinates, then the caller's saved home location, then the default.
func (ic *IssueController) resolveLocation(c *gin.Context, q listQuery) (models.Location, geo.LocationSource, error) {
	var requested *models.Location
	if q.Lat != nil || q.Lng != nil {
		if q.Lat == nil || q.Lng == nil {
			return models.Location{}, "", errors.New("lat and lng must be given together")
		}
		requested = &models.Location{Lat: *q.Lat, Lng: *q.Lng}
		if !requested.Valid() {
			return models.Location{}, "", errors.New("lat/lng out of range")
		}
	}

	var profile *models.Profile
	if userID := middlewares.UserID(c); userID != nil && requested == nil {
		p, err := ic.users.Profile(c.Request.Context(), *userID)
		switch {
		case err == nil:
			profile = &p
		case !errors.Is(err, services.ErrNotFound):
			ic.logger.Warn().Err(err).Str("user_id", *userID).Msg("profile lookup failed, using default location")
		}
	}

	loc, source := geo.ResolveLocation(requested, profile, ic.defaultLocation)
	return loc, source, nil
}

// ListIssues returns the filtered issues, nearest first.
func (ic *IssueController) ListIssues(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	if _, given := c.GetQuery("distance"); !given {
		q.RadiusKm = ic.defaultRadiusKm
	}

	loc, source, err := ic.resolveLocation(c, q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issues, err := ic.issues.List(c.Request.Context(), q.FilterOptions, loc)
	if err != nil {
		respondError(c, ic.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"issues":          issues,
		"count":           len(issues),
		"location":        loc,
		"location_source": source,
	})
}

// GetIssue returns one issue with its status history.
func (ic *IssueController) GetIssue(c *gin.Context) {
	detail, err := ic.issues.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, ic.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (ic *IssueController) GetIssueLogs(c *gin.Context) {
	logs, err := ic.issues.StatusLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, ic.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// CreateIssue handles the creation of a new issue
func (ic *IssueController) CreateIssue(c *gin.Context) {
	var input struct {
		Title       string               `json:"title" binding:"required,max=200"`
		Description string               `json:"description" binding:"required,max=2000"`
		Category    models.IssueCategory `json:"category" binding:"required,issue_category"`
		Images      []string             `json:"images" binding:"max=5"`
		Location    *models.Location     `json:"location" binding:"required"`
		Anonymous   bool                 `json:"anonymous"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	issue, err := ic.issues.Create(c.Request.Context(), services.NewIssue{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Images:      input.Images,
		Location:    input.Location,
		Anonymous:   input.Anonymous,
	}, middlewares.UserID(c))
	if err != nil {
		respondError(c, ic.logger, err)
		return
	}

	c.JSON(http.StatusCreated, issue)
}

// FlagIssue marks an issue for moderator review.
func (ic *IssueController) FlagIssue(c *gin.Context) {
	issue, err := ic.issues.Flag(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, ic.logger, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}
