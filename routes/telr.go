package routes

import (
	"github.com/gin-gonic/gin"

	orderControllers "github.com/junaidrashid-git/yar-marketplace/controllers/order"
	telrControllers "github.com/junaidrashid-git/yar-marketplace/controllers/telr"
	"github.com/junaidrashid-git/yar-marketplace/middleware"
)

func SetupTelrRoutes(r *gin.Engine, d Deps) {
	payment := r.Group("/payment")
	{
		// Where to send funds for manual and cash methods
		payment.GET("/instructions/:method", telrControllers.InstructionsHandler(d.Instructions))

		// Return page after a processor redirect
		payment.GET("/sessions/:sessionID", orderControllers.SessionHandler(d.Checkout))

		// Webhook endpoint: middleware handles sandbox/prod verification
		payment.POST("/webhook",
			middleware.RateLimit(d.Limiter),
			middleware.TelrWebhookAuth(d.Telr),
			telrControllers.TelrWebhookHandler(d.Engine),
		)
	}
}
