package routes

import (
	"github.com/gin-gonic/gin"

	vendorControllers "github.com/junaidrashid-git/yar-marketplace/controllers/vendor"
	"github.com/junaidrashid-git/yar-marketplace/middleware"
	"github.com/junaidrashid-git/yar-marketplace/models"
)

// SetupVendorRoutes registers all "/vendor/*" endpoints. Requires a vendor JWT.
func SetupVendorRoutes(r *gin.Engine, d Deps) {
	vendorGroup := r.Group("/vendor")
	vendorGroup.Use(middleware.ValidateToken(d.Issuer), middleware.RequireRole(models.RoleVendor))
	{
		vendorGroup.GET("/orders", vendorControllers.GetOrdersHandler(d.Fulfillment))
		vendorGroup.POST("/orders/:orderID/confirm", vendorControllers.ConfirmAvailabilityHandler(d.Fulfillment))
		vendorGroup.POST("/orders/:orderID/unavailable", vendorControllers.MarkUnavailableHandler(d.Fulfillment))
		vendorGroup.PUT("/orders/:orderID/delivery-fee", vendorControllers.DeliveryFeeHandler(d.Fulfillment))
	}
}
