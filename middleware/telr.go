package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/yar-marketplace/config"
	"github.com/junaidrashid-git/yar-marketplace/payment"
)

// TelrWebhookAuth verifies the tran_check signature of a Telr transaction
// advice. The check is skipped in sandbox and dev mode.
func TelrWebhookAuth(cfg config.TelrConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if cfg.Sandbox() {
			slog.DebugContext(ctx, "sandbox mode: skipping telr webhook signature verification")
			c.Next()
			return
		}
		if cfg.WebhookSecret == "" {
			slog.ErrorContext(ctx, "telr webhook secret is not set")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "EXTERNAL_SERVICE", "message": "webhook verification is not configured"})
			c.Abort()
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION", "message": "failed to parse form for signature verification"})
			c.Abort()
			return
		}

		providedCheck := c.PostForm("tran_check")
		if providedCheck == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "FORBIDDEN", "message": "missing tran_check signature"})
			c.Abort()
			return
		}

		calculated := payment.TelrSignature(cfg.WebhookSecret, c.Request.PostForm)
		if !strings.EqualFold(calculated, providedCheck) {
			slog.WarnContext(ctx, "telr webhook signature mismatch", "cart_id", c.PostForm("tran_cartid"))
			c.JSON(http.StatusForbidden, gin.H{"error": "FORBIDDEN", "message": "invalid webhook signature"})
			c.Abort()
			return
		}

		c.Next()
	}
}
