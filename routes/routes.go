package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/yar-marketplace/auth"
	"github.com/junaidrashid-git/yar-marketplace/checkout"
	"github.com/junaidrashid-git/yar-marketplace/config"
	"github.com/junaidrashid-git/yar-marketplace/fulfillment"
	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/middleware"
	"github.com/junaidrashid-git/yar-marketplace/notify"
	"github.com/junaidrashid-git/yar-marketplace/oversight"
	"github.com/junaidrashid-git/yar-marketplace/payment"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
)

// Deps is everything the route groups hand to their controllers.
type Deps struct {
	Store        *ledger.Store
	Engine       *reconcile.Engine
	Checkout     *checkout.Service
	Fulfillment  *fulfillment.Service
	Oversight    *oversight.Service
	Issuer       *auth.Issuer
	Hub          *notify.Hub
	Instructions payment.Directory
	Limiter      *middleware.IPLimiter
	Telr         config.TelrConfig
	AdminAPIKey  string
}

// SetupRoutes is the single entry-point that wires up every route group.
func SetupRoutes(r *gin.Engine, d Deps) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Public auth routes (no middleware)
	SetupAuthRoutes(r, d)

	// Cart and buyer order routes
	SetupUserRoutes(r, d)
	SetupOrderRoutes(r, d)

	// Processor callback and payment instructions
	SetupTelrRoutes(r, d)

	// Vendor routes (JWT with vendor role)
	SetupVendorRoutes(r, d)

	// Admin routes (API key and admin JWT)
	SetupAdminRoutes(r, d)
}
