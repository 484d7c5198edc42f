package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/models"
)

// Confirmation is what the order-placed page shows.
type Confirmation struct {
	OrderID              string               `json:"order_id"`
	OrderNumber          string               `json:"order_number"`
	Status               models.OrderStatus   `json:"status"`
	PaymentStatus        models.PaymentStatus `json:"payment_status"`
	PaymentMethod        models.PaymentMethod `json:"payment_method"`
	ItemCount            int                  `json:"item_count"`
	Subtotal             decimal.Decimal      `json:"subtotal"`
	DeliveryFee          decimal.Decimal      `json:"delivery_fee"`
	DeliveryFeeConfirmed bool                 `json:"delivery_fee_confirmed"`
	TotalAmount          decimal.Decimal      `json:"total_amount"`
	Currency             string               `json:"currency"`
	City                 string               `json:"city,omitempty"`
}

func (s *Service) Confirmation(ctx context.Context, orderID string) (Confirmation, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return Confirmation{}, err
	}
	c := Confirmation{
		OrderID:              o.ID,
		OrderNumber:          o.OrderNumber,
		Status:               o.Status,
		PaymentStatus:        o.PaymentStatus,
		PaymentMethod:        o.PaymentMethod,
		Subtotal:             o.Subtotal,
		DeliveryFee:          o.DeliveryFee,
		DeliveryFeeConfirmed: o.DeliveryFeeConfirmed,
		TotalAmount:          o.TotalAmount,
		Currency:             o.Currency,
	}
	for _, it := range o.Items {
		c.ItemCount += it.Quantity
	}
	if o.ShippingAddress != nil {
		c.City = o.ShippingAddress.City
	}
	return c, nil
}

// SessionState reports how a delegated checkout ended, for the page the
// processor redirects back to. OrderID is set once the callback landed.
type SessionState struct {
	SessionID string               `json:"session_id"`
	Status    models.SessionStatus `json:"status"`
	OrderID   string               `json:"order_id,omitempty"`
}

func (s *Service) Session(ctx context.Context, sessionID string) (SessionState, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return SessionState{}, err
	}
	st := SessionState{SessionID: sess.ID, Status: sess.Status}
	if sess.OrderID != nil {
		st.OrderID = *sess.OrderID
	}
	return st, nil
}
