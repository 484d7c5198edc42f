package routes

import (
	"github.com/gin-gonic/gin"

	adminController "github.com/junaidrashid-git/yar-marketplace/controllers/admin"
	"github.com/junaidrashid-git/yar-marketplace/middleware"
	"github.com/junaidrashid-git/yar-marketplace/models"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires the API key
// and an admin JWT.
func SetupAdminRoutes(r *gin.Engine, d Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(
		middleware.ValidateAPIKey(d.AdminAPIKey),
		middleware.ValidateToken(d.Issuer),
		middleware.RequireRole(models.RoleAdmin),
	)
	{
		// ─────────── Oversight ───────────
		adminGroup.GET("/dashboard", adminController.GetDashboard(d.Oversight))
		adminGroup.GET("/tickets", adminController.GetTickets(d.Oversight))

		// websocket endpoint for real-time order notifications
		adminGroup.GET("/ws", d.Hub.Handler)

		// ─────────── Vendor Verification ───────────
		vendorMgmt := adminGroup.Group("/vendors")
		{
			vendorMgmt.GET("/pending", adminController.ListPendingVendors(d.Oversight))
			vendorMgmt.PUT("/:vendorID/verify", adminController.VerifyVendor(d.Oversight))
		}

		// ─────────── Order Management ───────────
		orderMgmt := adminGroup.Group("/orders")
		{
			orderMgmt.GET("/export-excel", adminController.ExportOrdersToExcel(d.Oversight))
			orderMgmt.GET("/:orderID/history", adminController.GetHistory(d.Oversight))
			orderMgmt.POST("/:orderID/verify-payment", adminController.VerifyPayment(d.Oversight))
			orderMgmt.POST("/:orderID/reject-payment", adminController.RejectPayment(d.Oversight))
			orderMgmt.POST("/:orderID/deliver", adminController.MarkDelivered(d.Oversight))
			orderMgmt.POST("/:orderID/complete", adminController.Complete(d.Oversight))
			orderMgmt.POST("/:orderID/resolve", adminController.ResolveDispute(d.Oversight))
			orderMgmt.PUT("/:orderID/delivery-fee", adminController.ConfirmDeliveryFee(d.Oversight))
			orderMgmt.POST("/:orderID/release-escrow", adminController.ReleaseEscrow(d.Oversight))
		}
	}
}
