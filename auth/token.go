// Package auth issues and parses the bearer tokens that carry an actor's
// id and role. Sign-in itself happens elsewhere; this service only trusts
// tokens signed with the shared secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/junaidrashid-git/yar-marketplace/models"
)

var (
	ErrMissingSecret = errors.New("auth: jwt secret is not configured")
	ErrInvalidToken  = errors.New("auth: invalid or expired token")
)

type Claims struct {
	UserID   string      `json:"user_id"`
	Role     models.Role `json:"role"`
	VendorID string      `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs tokens with an HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration, now func() time.Time) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue returns a signed token for the actor and its expiry.
func (i *Issuer) Issue(userID string, role models.Role, vendorID string) (string, time.Time, error) {
	if len(i.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}
	if userID == "" {
		return "", time.Time{}, errors.New("auth: user id is required")
	}
	switch role {
	case models.RoleBuyer, models.RoleAdmin:
	case models.RoleVendor:
		if vendorID == "" {
			return "", time.Time{}, errors.New("auth: vendor tokens need a vendor id")
		}
	default:
		return "", time.Time{}, fmt.Errorf("auth: role %q cannot hold a token", role)
	}

	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		UserID:   userID,
		Role:     role,
		VendorID: vendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates the signature and expiry and returns the claims.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	if len(i.secret) == 0 {
		return nil, ErrMissingSecret
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
