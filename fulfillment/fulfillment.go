// Package fulfillment is the vendor side of an order: the list of orders
// holding the vendor's items and the availability decisions on them.
package fulfillment

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Delivery is what a vendor needs to hand goods over. The buyer's
// account is never exposed.
type Delivery struct {
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
}

type Item struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	ImageRef    string          `json:"image_ref"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Order is an order as one vendor sees it: only their own lines, and a
// subtotal over those lines.
type Order struct {
	ID             string               `json:"id"`
	OrderNumber    string               `json:"order_number"`
	Status         models.OrderStatus   `json:"status"`
	PaymentStatus  models.PaymentStatus `json:"payment_status"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"`
	Items          []Item               `json:"items"`
	VendorSubtotal decimal.Decimal      `json:"vendor_subtotal"`
	Currency       string               `json:"currency"`
	Delivery       *Delivery            `json:"delivery,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	VendorNotes    string               `json:"vendor_notes,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	Actions        []reconcile.Event    `json:"actions"`
}

type Filter struct {
	Status string
	Limit  int
}

type Service struct {
	store  *ledger.Store
	engine *reconcile.Engine
}

func NewService(store *ledger.Store, engine *reconcile.Engine) *Service {
	return &Service{store: store, engine: engine}
}

// Orders lists the vendor's orders, newest first.
func (s *Service) Orders(ctx context.Context, vendorID string, f Filter) ([]Order, error) {
	if strings.TrimSpace(vendorID) == "" {
		return nil, apperr.Validation("vendor_id", "vendor is required")
	}
	var status *models.OrderStatus
	if f.Status != "" {
		st, ok := models.ParseOrderStatus(f.Status)
		if !ok {
			return nil, apperr.Validation("status", "unknown order status "+f.Status)
		}
		status = &st
	}
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	orders, err := s.store.VendorOrders(ctx, vendorID, status, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(orders))
	for i := range orders {
		out = append(out, view(&orders[i], vendorID))
	}
	return out, nil
}

func view(o *models.Order, vendorID string) Order {
	v := Order{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		PaymentMethod:  o.PaymentMethod,
		VendorSubtotal: decimal.Zero,
		Currency:       o.Currency,
		Notes:          o.Notes,
		VendorNotes:    o.VendorNotes,
		CreatedAt:      o.CreatedAt,
		Actions:        reconcile.Orders.Allowed(o.Status, o.PaymentStatus, models.RoleVendor),
	}
	for _, it := range o.Items {
		if it.VendorID != vendorID {
			continue
		}
		v.Items = append(v.Items, Item{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ImageRef:    it.ProductImageRef,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
		v.VendorSubtotal = v.VendorSubtotal.Add(it.LineTotal)
	}
	if a := o.ShippingAddress; a != nil {
		v.Delivery = &Delivery{FullName: a.FullName, Phone: a.Phone, AddressLine: a.AddressLine, City: a.City}
	}
	return v
}

func vendorActor(userID, vendorID string) reconcile.Actor {
	return reconcile.Actor{ID: userID, Role: models.RoleVendor, VendorID: vendorID}
}

// ConfirmAvailability moves the order to processing on the vendor's word.
func (s *Service) ConfirmAvailability(ctx context.Context, userID, vendorID, orderID string) (Order, error) {
	if _, err := s.engine.ConfirmAvailability(ctx, orderID, vendorActor(userID, vendorID)); err != nil {
		return Order{}, err
	}
	return s.reload(ctx, orderID, vendorID)
}

// MarkUnavailable cancels the order. A blank note gets a default message.
func (s *Service) MarkUnavailable(ctx context.Context, userID, vendorID, orderID, note string) (Order, error) {
	if _, err := s.engine.MarkUnavailable(ctx, orderID, vendorActor(userID, vendorID), note); err != nil {
		return Order{}, err
	}
	return s.reload(ctx, orderID, vendorID)
}

func (s *Service) reload(ctx context.Context, orderID, vendorID string) (Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	return view(o, vendorID), nil
}

// ConfirmDeliveryFee sets the delivery fee the vendor will charge.
func (s *Service) ConfirmDeliveryFee(ctx context.Context, userID, vendorID, orderID string, fee decimal.Decimal) (Order, error) {
	if _, err := s.engine.ConfirmDeliveryFee(ctx, orderID, vendorActor(userID, vendorID), fee); err != nil {
		return Order{}, err
	}
	return s.reload(ctx, orderID, vendorID)
}
