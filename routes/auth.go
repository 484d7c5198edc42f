package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/yar-marketplace/auth"
)

// SetupAuthRoutes registers all "/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, d Deps) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/guest", auth.CreateGuestUser(d.Issuer))
	}
}
