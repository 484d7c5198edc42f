package adminController

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/controllers/respond"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/oversight"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
)

type RejectPaymentRequest struct {
	Reason string `json:"reason"`
}

type DeliveryFeeRequest struct {
	Fee decimal.Decimal `json:"fee"`
}

type PenaltyInput struct {
	VendorID string          `json:"vendor_id"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason"`
}

type ResolveRequest struct {
	Outcome string        `json:"outcome" binding:"required"`
	Note    string        `json:"note"`
	Penalty *PenaltyInput `json:"penalty"`
}

type orderAction func(c *gin.Context, svc *oversight.Service, adminID, orderID string) (*models.Order, error)

// orderHandler runs an admin action on :orderID and answers with the order.
func orderHandler(svc *oversight.Service, action orderAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := action(c, svc, adminID(c), c.Param("orderID"))
		if err != nil {
			if !c.Writer.Written() {
				respond.Error(c, err)
			}
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// POST /admin/orders/:orderID/verify-payment
func VerifyPayment(svc *oversight.Service) gin.HandlerFunc {
	return orderHandler(svc, func(c *gin.Context, svc *oversight.Service, adminID, orderID string) (*models.Order, error) {
		return svc.VerifyPayment(c.Request.Context(), adminID, orderID)
	})
}

// POST /admin/orders/:orderID/reject-payment
func RejectPayment(svc *oversight.Service) gin.HandlerFunc {
	return orderHandler(svc, func(c *gin.Context, svc *oversight.Service, adminID, orderID string) (*models.Order, error) {
		var req RejectPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return nil, err
		}
		return svc.RejectPayment(c.Request.Context(), adminID, orderID, req.Reason)
	})
}

// POST /admin/orders/:orderID/deliver
func MarkDelivered(svc *oversight.Service) gin.HandlerFunc {
	return orderHandler(svc, func(c *gin.Context, svc *oversight.Service, adminID, orderID string) (*models.Order, error) {
		return svc.MarkDelivered(c.Request.Context(), adminID, orderID)
	})
}

// POST /admin/orders/:orderID/complete
func Complete(svc *oversight.Service) gin.HandlerFunc {
	return orderHandler(svc, func(c *gin.Context, svc *oversight.Service, adminID, orderID string) (*models.Order, error) {
		return svc.Complete(c.Request.Context(), adminID, orderID)
	})
}

// POST /admin/orders/:orderID/resolve
func ResolveDispute(svc *oversight.Service) gin.HandlerFunc {
	return orderHandler(svc, func(c *gin.Context, svc *oversight.Service, adminID, orderID string) (*models.Order, error) {
		var req ResolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return nil, err
		}
		outcome, ok := models.ParseOrderStatus(req.Outcome)
		if !ok {
			return nil, apperr.Validation("outcome", "unknown outcome "+req.Outcome)
		}
		res := reconcile.Resolution{Outcome: outcome, Note: req.Note}
		if p := req.Penalty; p != nil {
			res.Penalty = &reconcile.Penalty{VendorID: p.VendorID, Amount: p.Amount, Reason: p.Reason}
		}
		return svc.ResolveDispute(c.Request.Context(), adminID, orderID, res)
	})
}

// PUT /admin/orders/:orderID/delivery-fee
func ConfirmDeliveryFee(svc *oversight.Service) gin.HandlerFunc {
	return orderHandler(svc, func(c *gin.Context, svc *oversight.Service, adminID, orderID string) (*models.Order, error) {
		var req DeliveryFeeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return nil, err
		}
		return svc.ConfirmDeliveryFee(c.Request.Context(), adminID, orderID, req.Fee)
	})
}

// POST /admin/orders/:orderID/release-escrow
func ReleaseEscrow(svc *oversight.Service) gin.HandlerFunc {
	return orderHandler(svc, func(c *gin.Context, svc *oversight.Service, adminID, orderID string) (*models.Order, error) {
		return svc.ReleaseEscrow(c.Request.Context(), adminID, orderID)
	})
}

// GET /admin/orders/:orderID/history
func GetHistory(svc *oversight.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svc.History(c.Request.Context(), adminID(c), c.Param("orderID"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

// GET /admin/orders/export-excel?since=2026-01-31
func ExportOrdersToExcel(svc *oversight.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var since time.Time
		if raw := c.Query("since"); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				respond.Error(c, apperr.Validation("since", "since must be a YYYY-MM-DD date"))
				return
			}
			since = t
		}

		var buf bytes.Buffer
		n, err := svc.ExportOrders(c.Request.Context(), &buf, since)
		if err != nil {
			respond.Error(c, err)
			return
		}
		slog.InfoContext(c.Request.Context(), "orders exported", "rows", n, "since", since)

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")
		c.Header("X-Row-Count", strconv.Itoa(n))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	}
}
