package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/yar-marketplace/models"
)

// GuestTTL is how long a guest checkout token lives.
const GuestTTL = 24 * time.Hour

// randRead is swapped in tests.
var randRead = rand.Read

// NewGuestID returns a random "guest_" id for a buyer without an account.
func NewGuestID() (string, error) {
	s, err := generateRandomString(16)
	if err != nil {
		return "", err
	}
	return "guest_" + s, nil
}

func generateRandomString(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := randRead(bytes); err != nil {
		return "", fmt.Errorf("auth: guest id: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// IssueGuest signs a short-lived buyer token for a fresh guest id, so a
// guest can follow the orders placed in that session.
func (i *Issuer) IssueGuest() (id, token string, expiresAt time.Time, err error) {
	id, err = NewGuestID()
	if err != nil {
		return "", "", time.Time{}, err
	}
	guest := &Issuer{secret: i.secret, ttl: GuestTTL, now: i.now}
	token, expiresAt, err = guest.Issue(id, models.RoleBuyer, "")
	return id, token, expiresAt, err
}

// POST /auth/guest
func CreateGuestUser(iss *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		guestID, token, expiresAt, err := iss.IssueGuest()
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "guest token failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL", "message": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"guest_id":   guestID,
			"token":      token,
			"expires_at": expiresAt,
		})
	}
}
