package routes

import (
	"github.com/gin-gonic/gin"

	orderControllers "github.com/junaidrashid-git/yar-marketplace/controllers/order"
	"github.com/junaidrashid-git/yar-marketplace/middleware"
	"github.com/junaidrashid-git/yar-marketplace/models"
)

func SetupOrderRoutes(r *gin.Engine, d Deps) {
	orders := r.Group("/orders")
	{
		// Place an order; guests allowed, rate limited per IP
		orders.POST("/checkout",
			middleware.RateLimit(d.Limiter),
			middleware.OptionalToken(d.Issuer),
			orderControllers.CheckoutHandler(d.Checkout),
		)

		// Order-placed page
		orders.GET("/:orderID/confirmation", orderControllers.ConfirmationHandler(d.Checkout))

		buyer := orders.Group("", middleware.ValidateToken(d.Issuer))
		{
			buyer.GET("/mine", middleware.RequireRole(models.RoleBuyer), orderControllers.MyOrdersHandler(d.Store))
			buyer.POST("/:orderID/reference", middleware.RequireRole(models.RoleBuyer), orderControllers.SubmitReferenceHandler(d.Engine))
			buyer.GET("/:orderID/history", orderControllers.HistoryHandler(d.Engine))
		}
	}
}
