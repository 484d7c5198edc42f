// Package payment talks to the outside money rails: the redirect
// processor for card and wallet payments, and the static destinations
// buyers transfer to for manual-reference methods.
package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/models"
)

type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"image_ref,omitempty"`
}

type Contact struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
}

// RedirectRequest asks the processor for a hosted payment page. SessionID
// comes back in the callback and identifies the checkout.
type RedirectRequest struct {
	SessionID   string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Method      models.PaymentMethod
	Items       []LineItem
	Contact     Contact
}

type Redirect struct {
	URL string
	Ref string
}

type Processor interface {
	CreateRedirect(ctx context.Context, req RedirectRequest) (Redirect, error)
}
