package cartControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/yar-marketplace/cart"
	"github.com/junaidrashid-git/yar-marketplace/controllers/respond"
)

type QuoteInput struct {
	Lines []cart.Line `json:"lines" binding:"dive"`
}

// POST /cart/quote
//
// The cart lives on the client; this recomputes its derived totals so
// every screen shows the same numbers.
func Quote() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input QuoteInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}
		c.JSON(http.StatusOK, cart.New(input.Lines...).Summary())
	}
}
