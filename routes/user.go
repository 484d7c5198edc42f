package routes

import (
	"github.com/gin-gonic/gin"

	cartControllers "github.com/junaidrashid-git/yar-marketplace/controllers/cart"
)

// SetupUserRoutes registers the cart endpoints. The cart itself is kept
// by the client, so these need no token.
func SetupUserRoutes(r *gin.Engine, d Deps) {
	cartGroup := r.Group("/cart")
	{
		cartGroup.POST("/quote", cartControllers.Quote()) // POST /cart/quote
	}
}
