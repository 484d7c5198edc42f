package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/yar-marketplace/auth"
	"github.com/junaidrashid-git/yar-marketplace/logging"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
)

const actorKey = "actor"

func bearer(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return header
}

func setActor(c *gin.Context, claims *auth.Claims) {
	a := reconcile.Actor{ID: claims.UserID, Role: claims.Role, VendorID: claims.VendorID}
	c.Set(actorKey, a)
	c.Set("user_id", a.ID)
	c.Request = c.Request.WithContext(logging.WithActor(c.Request.Context(), a.ID))
}

// ValidateToken requires a valid bearer token and stores the actor it names.
func ValidateToken(iss *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearer(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Authorization header is missing"})
			c.Abort()
			return
		}
		claims, err := iss.Parse(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Invalid or expired token"})
			c.Abort()
			return
		}
		setActor(c, claims)
		c.Next()
	}
}

// OptionalToken stores the actor when a valid token is present and lets
// anonymous requests through. An invalid token is still rejected.
func OptionalToken(iss *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearer(c)
		if tokenString == "" {
			c.Next()
			return
		}
		claims, err := iss.Parse(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Invalid or expired token"})
			c.Abort()
			return
		}
		setActor(c, claims)
		c.Next()
	}
}

// RequireRole rejects actors whose role is not listed. It must run after
// ValidateToken.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := ActorFrom(c)
		if !ok || !slices.Contains(roles, a.Role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "FORBIDDEN", "message": "Insufficient role"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFrom returns the actor stored by ValidateToken or OptionalToken.
func ActorFrom(c *gin.Context) (reconcile.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return reconcile.Actor{}, false
	}
	a, ok := v.(reconcile.Actor)
	return a, ok
}
