package telrControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/yar-marketplace/controllers/respond"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/payment"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
)

// POST /payment/webhook
//
// Telr posts a form-encoded transaction advice; tran_cartid is the payment
// session id. The signature is checked by middleware before this runs.
func TelrWebhookHandler(engine *reconcile.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION", "message": "failed to parse form"})
			return
		}

		advice, err := payment.ParseTelrAdvice(c.Request.PostForm)
		if err != nil {
			respond.Error(c, err)
			return
		}

		order, err := engine.HandleProcessorCallback(c.Request.Context(), reconcile.Callback{
			SessionID:    advice.CartID,
			Approved:     advice.Approved(),
			ProcessorRef: advice.Ref,
			Amount:       advice.Amount,
		})
		if err != nil {
			respond.Error(c, err)
			return
		}

		if order == nil {
			c.JSON(http.StatusOK, gin.H{"message": "Payment not successful"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":      "Order placed successfully",
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
		})
	}
}

// GET /payment/instructions/:method
func InstructionsHandler(dir payment.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		method, ok := models.ParsePaymentMethod(c.Param("method"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION", "field": "method", "message": "unsupported payment method"})
			return
		}
		in, err := dir.For(method)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, in)
	}
}
