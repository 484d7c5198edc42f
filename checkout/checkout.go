// Package checkout turns a cart into either a committed pending order
// (manual-reference and cash methods) or a processor redirect whose
// callback later creates the order (card and wallet methods).
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/cart"
	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/notify"
	"github.com/junaidrashid-git/yar-marketplace/payment"
)

// ErrEmptyCart is a precondition failure: the buyer belongs on the
// empty-cart page, not on an error screen.
var ErrEmptyCart = errors.New("checkout: cart is empty")

type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Request struct {
	BuyerID   *string
	Contact   Contact
	Method    string
	Reference string
	Notes     string
}

// Result carries the order for committed checkouts, or the redirect for
// delegated ones.
type Result struct {
	Kind        models.PaymentKind `json:"-"`
	OrderID     string             `json:"order_id,omitempty"`
	OrderNumber string             `json:"order_number,omitempty"`
	SessionID   string             `json:"session_id,omitempty"`
	RedirectURL string             `json:"redirect_url,omitempty"`
	Message     string             `json:"message"`
}

type Service struct {
	store     *ledger.Store
	processor payment.Processor
	notifier  notify.Notifier
	cache     Invalidator
	currency  string
	numbers   func() string
}

func NewService(store *ledger.Store, processor payment.Processor, n notify.Notifier, inv Invalidator, currency string) *Service {
	if n == nil {
		n = notify.Discard{}
	}
	return &Service{
		store:     store,
		processor: processor,
		notifier:  n,
		cache:     inv,
		currency:  currency,
		numbers:   ledger.OrderNumbers(store.Now),
	}
}

// WithOrderNumbers replaces the order-number generator.
func (s *Service) WithOrderNumbers(next func() string) *Service {
	s.numbers = next
	return s
}

// Checkout validates the request and commits it along the method's path.
// The cart is cleared only when the checkout succeeded.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart, req Request) (Result, error) {
	if c == nil || c.IsEmpty() {
		return Result{}, ErrEmptyCart
	}
	if err := Validate(req.Contact); err != nil {
		return Result{}, err
	}
	method, ok := models.ParsePaymentMethod(req.Method)
	if !ok {
		return Result{}, apperr.Validation("payment_method", fmt.Sprintf("unsupported payment method %q", req.Method))
	}
	if err := validateLines(c.Lines()); err != nil {
		return Result{}, err
	}
	req.Contact = req.Contact.normalized()
	req.Reference = strings.TrimSpace(req.Reference)

	var (
		res Result
		err error
	)
	switch method.Kind() {
	case models.KindDelegated:
		res, err = s.delegated(ctx, c, req, method)
	case models.KindManual:
		if req.Reference == "" {
			return Result{}, apperr.Validation("reference", "please enter the transaction reference of your payment")
		}
		res, err = s.commit(ctx, c, req, method)
	case models.KindOnDelivery:
		req.Reference = ""
		res, err = s.commit(ctx, c, req, method)
	}
	if err != nil {
		return Result{}, err
	}
	res.Kind = method.Kind()
	c.Clear()
	return res, nil
}

func validateLines(lines []cart.Line) error {
	for i, l := range lines {
		switch {
		case l.ProductID == "":
			return apperr.Validation(fmt.Sprintf("lines[%d].product_id", i), "product is required")
		case l.VendorID == "":
			return apperr.Validation(fmt.Sprintf("lines[%d].vendor_id", i), "vendor is required")
		case !l.UnitPrice.IsPositive():
			return apperr.Validation(fmt.Sprintf("lines[%d].unit_price", i), "unit price must be positive")
		case l.Quantity < 1:
			return apperr.Validation(fmt.Sprintf("lines[%d].quantity", i), "quantity must be at least 1")
		}
	}
	return nil
}

func orderItems(lines []cart.Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.NewOrderItem(l.ProductID, l.VendorID, l.Name, l.ImageRef, l.Quantity, l.UnitPrice))
	}
	return items
}

func address(buyer *string, c Contact) models.Address {
	return models.Address{
		OwnerUserID: buyer,
		FullName:    c.Name,
		Phone:       c.Phone,
		AddressLine: c.Address,
		City:        c.City,
		Label:       c.Label,
	}
}

func notes(req Request) string {
	var parts []string
	if req.Reference != "" {
		parts = append(parts, "Payment reference: "+req.Reference)
	}
	if req.Contact.Email != "" {
		parts = append(parts, "Email: "+req.Contact.Email)
	}
	if n := strings.TrimSpace(req.Notes); n != "" {
		parts = append(parts, n)
	}
	return strings.Join(parts, "\n")
}

func actorID(buyer *string) string {
	if buyer == nil {
		return "guest"
	}
	return *buyer
}

// commit writes address, order, items, payment record and the checkout
// event in one transaction.
func (s *Service) commit(ctx context.Context, c *cart.Cart, req Request, method models.PaymentMethod) (Result, error) {
	draft := &ledger.OrderDraft{
		Address: address(req.BuyerID, req.Contact),
		Order: models.Order{
			BuyerUserID:   req.BuyerID,
			Subtotal:      c.Subtotal(),
			DeliveryFee:   decimal.Zero,
			Currency:      s.currency,
			PaymentMethod: method,
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusPending,
			Notes:         notes(req),
		},
		Items:   orderItems(c.Lines()),
		Payment: models.PaymentRecord{ExternalReference: req.Reference},
		Event: models.OrderEvent{
			Event:     "checkout",
			ActorID:   actorID(req.BuyerID),
			ActorRole: models.RoleBuyer,
			Note:      req.Reference,
		},
	}

	o, err := s.store.CreateOrder(ctx, draft, s.numbers, nil)
	if err != nil {
		slog.ErrorContext(ctx, "checkout commit failed", "method", method, "error", err)
		return Result{}, err
	}
	slog.InfoContext(ctx, "order placed", "order_id", o.ID, "order_number", o.OrderNumber, "method", method, "items", len(o.Items))

	msg := fmt.Sprintf("Order %s placed. Your payment will be verified within 24h.", o.OrderNumber)
	if method.Kind() == models.KindOnDelivery {
		msg = fmt.Sprintf("Order %s placed. Pay in cash on delivery.", o.OrderNumber)
	}
	s.announce(ctx, o, msg)

	return Result{OrderID: o.ID, OrderNumber: o.OrderNumber, Message: msg}, nil
}

func (s *Service) announce(ctx context.Context, o *models.Order, buyerMsg string) {
	now := s.store.Now()
	base := notify.Notification{OrderID: o.ID, OrderNumber: o.OrderNumber, At: now}

	toBuyer := base
	toBuyer.Audience, toBuyer.RecipientID, toBuyer.Kind, toBuyer.Message = notify.AudienceBuyer, actorID(o.BuyerUserID), "order_placed", buyerMsg
	toPlatform := base
	toPlatform.Audience, toPlatform.Kind, toPlatform.Message = notify.AudiencePlatform, "order_created", "New order "+o.OrderNumber

	notes := []notify.Notification{toBuyer, toPlatform}
	seen := map[string]bool{}
	for _, it := range o.Items {
		if seen[it.VendorID] {
			continue
		}
		seen[it.VendorID] = true
		n := base
		n.Audience, n.RecipientID, n.Kind, n.Message = notify.AudienceVendor, it.VendorID, "order_created", "New order "+o.OrderNumber+" to confirm"
		notes = append(notes, n)
	}
	for _, n := range notes {
		if err := s.notifier.Notify(ctx, n); err != nil {
			slog.ErrorContext(ctx, "notification failed", "order_id", o.ID, "kind", n.Kind, "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			slog.ErrorContext(ctx, "aggregate cache invalidation failed", "error", err)
		}
	}
}

// delegated snapshots the cart in a payment session and asks the
// processor for a redirect. The order is created by the callback.
func (s *Service) delegated(ctx context.Context, c *cart.Cart, req Request, method models.PaymentMethod) (Result, error) {
	lines := c.Lines()
	sess := &models.PaymentSession{
		ID:          uuid.NewString(),
		Method:      method,
		BuyerUserID: req.BuyerID,
		Amount:      c.Total(),
		Currency:    s.currency,
		Status:      models.SessionOpen,
		CreatedAt:   s.store.Now(),
		UpdatedAt:   s.store.Now(),
	}
	err := sess.SetSnapshot(models.SessionSnapshot{
		Address:  address(req.BuyerID, req.Contact),
		Email:    req.Contact.Email,
		Notes:    notes(req),
		Items:    orderItems(lines),
		Subtotal: c.Subtotal(),
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return Result{}, err
	}

	items := make([]payment.LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, payment.LineItem{ID: l.ProductID, Name: l.Name, UnitPrice: l.UnitPrice, Quantity: l.Quantity, ImageRef: l.ImageRef})
	}
	redirect, err := s.processor.CreateRedirect(ctx, payment.RedirectRequest{
		SessionID:   sess.ID,
		Amount:      sess.Amount,
		Currency:    sess.Currency,
		Description: fmt.Sprintf("Yar marketplace order (%d items)", c.ItemCount()),
		Method:      method,
		Items:       items,
		Contact: payment.Contact{
			Name:        req.Contact.Name,
			Email:       req.Contact.Email,
			Phone:       req.Contact.Phone,
			AddressLine: req.Contact.Address,
			City:        req.Contact.City,
		},
	})
	if err != nil {
		if markErr := s.store.MarkSessionFailed(ctx, sess.ID, ""); markErr != nil {
			slog.ErrorContext(ctx, "could not mark payment session failed", "session_id", sess.ID, "error", markErr)
		}
		slog.WarnContext(ctx, "payment redirect failed", "session_id", sess.ID, "method", method, "error", err)
		if !apperr.IsExternal(err) {
			err = apperr.External("payment processor", err)
		}
		return Result{}, err
	}

	err = s.store.Transact(ctx, func(tx *ledger.Tx) error {
		return tx.UpdateSession(sess.ID, map[string]any{"processor_ref": redirect.Ref})
	})
	if err != nil {
		slog.ErrorContext(ctx, "could not store processor reference", "session_id", sess.ID, "error", err)
	}

	slog.InfoContext(ctx, "payment redirect created", "session_id", sess.ID, "method", method)
	return Result{
		SessionID:   sess.ID,
		RedirectURL: redirect.URL,
		Message:     "Redirecting to the payment page",
	}, nil
}
