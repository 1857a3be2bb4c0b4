package routes

import (
	"net/http"

	"civictrack/config"
	"civictrack/controllers"
	"civictrack/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Dependencies struct {
	Config *config.Config
	Logger zerolog.Logger
	Redis  *redis.Client
	Users  *services.UserService

	Issues *controllers.IssueController
	Admin  *controllers.AdminController
	// Legacy is nil when the deprecated surface is not mounted.
	Legacy *controllers.LegacyController
}

// Setup registers every route group on r.
func Setup(r *gin.Engine, d Dependencies) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	IssueRoutes(v1, d)
	AdminRoutes(v1, d)

	if d.Legacy != nil {
		AuthRoutes(r, d)
		LegacyIssueRoutes(r, d)
	}
}
