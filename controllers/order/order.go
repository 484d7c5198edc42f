package orderControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/cart"
	"github.com/junaidrashid-git/yar-marketplace/checkout"
	"github.com/junaidrashid-git/yar-marketplace/controllers/respond"
	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/middleware"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
)

// -------- Request Structs --------
type CheckoutRequest struct {
	Lines         []cart.Line      `json:"lines"`
	Contact       checkout.Contact `json:"contact"`
	PaymentMethod string           `json:"payment_method"`
	Reference     string           `json:"reference"`
	Notes         string           `json:"notes"`
}

type SubmitReferenceRequest struct {
	Reference string `json:"reference"`
}

const (
	defaultOrderLimit = 50
	maxOrderLimit     = 200
)

// POST /orders/checkout
//
// Guests may check out; a signed-in buyer gets the order on their account.
func CheckoutHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		in := checkout.Request{
			Contact:   req.Contact,
			Method:    req.PaymentMethod,
			Reference: req.Reference,
			Notes:     req.Notes,
		}
		if a, ok := middleware.ActorFrom(c); ok && a.Role == models.RoleBuyer {
			buyer := a.ID
			in.BuyerID = &buyer
		}

		res, err := svc.Checkout(c.Request.Context(), cart.New(req.Lines...), in)
		if errors.Is(err, checkout.ErrEmptyCart) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "EMPTY_CART", "message": "Your cart is empty"})
			return
		}
		if err != nil {
			respond.Error(c, err)
			return
		}

		status := http.StatusCreated
		if res.Kind == models.KindDelegated {
			status = http.StatusOK
		}
		c.JSON(status, res)
	}
}

// GET /orders/:orderID/confirmation
func ConfirmationHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		conf, err := svc.Confirmation(c.Request.Context(), c.Param("orderID"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, conf)
	}
}

// GET /payment/sessions/:sessionID
func SessionHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.Session(c.Request.Context(), c.Param("sessionID"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// POST /orders/:orderID/reference
func SubmitReferenceHandler(engine *reconcile.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitReferenceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		a, _ := middleware.ActorFrom(c)

		order, err := engine.SubmitReference(c.Request.Context(), c.Param("orderID"), a, req.Reference)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /orders/:orderID/history
func HistoryHandler(engine *reconcile.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, _ := middleware.ActorFrom(c)
		events, err := engine.History(c.Request.Context(), c.Param("orderID"), a)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

// GET /orders/mine
func MyOrdersHandler(store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, _ := middleware.ActorFrom(c)
		limit, err := parseLimit(c.Query("limit"))
		if err != nil {
			respond.Error(c, err)
			return
		}

		orders, err := store.BuyerOrders(c.Request.Context(), a.ID, limit)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultOrderLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.Validation("limit", "limit must be a positive number")
	}
	if n > maxOrderLimit {
		n = maxOrderLimit
	}
	return n, nil
}
