package routes

import (
	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the deprecated authentication routes
func AuthRoutes(r *gin.Engine, d Dependencies) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", d.Legacy.RegisterUser)
		auth.POST("/login", d.Legacy.LoginUser)
	}
}
