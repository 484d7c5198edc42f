package adminController

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/controllers/respond"
	"github.com/junaidrashid-git/yar-marketplace/middleware"
	"github.com/junaidrashid-git/yar-marketplace/oversight"
)

type VerifyVendorRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

func adminID(c *gin.Context) string {
	a, _ := middleware.ActorFrom(c)
	return a.ID
}

// GET /admin/dashboard?window_days=30
func GetDashboard(svc *oversight.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := 0
		if raw := c.Query("window_days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				respond.Error(c, apperr.Validation("window_days", "window_days must be a number"))
				return
			}
			days = n
		}

		d, err := svc.Dashboard(c.Request.Context(), days)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// GET /admin/tickets
func GetTickets(svc *oversight.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := svc.Tickets(c.Request.Context())
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tickets": tickets})
	}
}

// GET /admin/vendors/pending
func ListPendingVendors(svc *oversight.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		vendors, err := svc.PendingVendors(c.Request.Context())
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"vendors": vendors})
	}
}

// PUT /admin/vendors/:vendorID/verify
func VerifyVendor(svc *oversight.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyVendorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		v, err := svc.VerifyVendor(c.Request.Context(), adminID(c), c.Param("vendorID"), *req.Verified)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}
