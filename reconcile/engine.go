package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/notify"
)

// DefaultHoldWindow is how long funds stay in escrow after delivery.
const DefaultHoldWindow = 7 * 24 * time.Hour

// Actor is who triggers an event. VendorID is set for vendors only.
type Actor struct {
	ID       string
	Role     models.Role
	VendorID string
}

var (
	System    = Actor{ID: "escrow-sweeper", Role: models.RoleSystem}
	Processor = Actor{ID: "payment-processor", Role: models.RoleProcessor}
)

// Invalidator drops cached aggregates after a committed write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type noCache struct{}

func (noCache) Invalidate(context.Context) error { return nil }

type Engine struct {
	store      *ledger.Store
	notifier   notify.Notifier
	cache      Invalidator
	machine    Machine
	holdWindow time.Duration
	numbers    func() string
}

type Option func(*Engine)

func WithCache(inv Invalidator) Option {
	return func(e *Engine) { e.cache = inv }
}

func WithHoldWindow(d time.Duration) Option {
	return func(e *Engine) { e.holdWindow = d }
}

func WithOrderNumbers(next func() string) Option {
	return func(e *Engine) { e.numbers = next }
}

func New(store *ledger.Store, n notify.Notifier, opts ...Option) *Engine {
	if n == nil {
		n = notify.Discard{}
	}
	e := &Engine{
		store:      store,
		notifier:   n,
		cache:      noCache{},
		machine:    Orders,
		holdWindow: DefaultHoldWindow,
		numbers:    ledger.OrderNumbers(store.Now),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) HoldWindow() time.Duration { return e.holdWindow }

// request is one event against one order. prepare may add columns to the
// order update and write side records in the same transaction.
type request struct {
	event   Event
	actor   Actor
	want    models.OrderStatus
	note    string
	prepare func(tx *ledger.Tx, o *models.Order, fields map[string]any) error
	notices func(o *models.Order, vendors []string) []notify.Notification
}

func conflict(o *models.Order, ev Event, reason string) error {
	return apperr.Conflict(o.ID, string(o.Status), string(ev), reason)
}

// apply runs the whole check-and-write sequence in one transaction.
// Notifications and cache invalidation only happen after commit.
func (e *Engine) apply(ctx context.Context, orderID string, r request) (*models.Order, error) {
	var (
		order   *models.Order
		step    Step
		vendors []string
	)
	err := e.store.Transact(ctx, func(tx *ledger.Tx) error {
		o, err := tx.Order(orderID)
		if err != nil {
			return err
		}
		if err := authorize(tx, o, r.actor, r.event); err != nil {
			return err
		}
		step, err = e.machine.Next(r.event, o.Status, o.PaymentStatus, r.actor.Role, r.want)
		if err != nil {
			return conflict(o, r.event, err.Error())
		}
		if err := requireReference(o, r.event, step); err != nil {
			return err
		}

		fields := map[string]any{}
		if step.StatusChanged() {
			fields["status"] = step.To
		}
		if step.PaymentTo != o.PaymentStatus {
			fields["payment_status"] = step.PaymentTo
		}
		if r.prepare != nil {
			if err := r.prepare(tx, o, fields); err != nil {
				return err
			}
		}
		if err := tx.UpdateOrder(o, fields); err != nil {
			if errors.Is(err, ledger.ErrStaleVersion) {
				return conflict(o, r.event, "concurrent update")
			}
			return err
		}
		o.Status, o.PaymentStatus = step.To, step.PaymentTo

		err = tx.AppendEvent(&models.OrderEvent{
			OrderID:    o.ID,
			Event:      string(r.event),
			FromStatus: step.From,
			ToStatus:   step.To,
			ActorID:    r.actor.ID,
			ActorRole:  r.actor.Role,
			Note:       r.note,
		})
		if err != nil {
			return err
		}
		if vendors, err = tx.OrderVendorIDs(o.ID); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "order event rejected",
			"order_id", orderID, "event", r.event, "actor", r.actor.ID, "role", r.actor.Role, "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "order event applied",
		"order_id", order.ID, "event", r.event, "from", step.From, "to", step.To,
		"payment_status", step.PaymentTo, "actor", r.actor.ID, "role", r.actor.Role)

	var notes []notify.Notification
	if r.notices != nil {
		notes = r.notices(order, vendors)
	}
	e.afterCommit(ctx, notes)
	return order, nil
}

func authorize(tx *ledger.Tx, o *models.Order, a Actor, ev Event) error {
	switch a.Role {
	case models.RoleVendor:
		if a.VendorID == "" {
			return apperr.Conflict(o.ID, "", string(ev), "actor has no vendor account")
		}
		owns, err := tx.VendorOwns(o.ID, a.VendorID)
		if err != nil {
			return err
		}
		if !owns {
			return apperr.Conflict(o.ID, "", string(ev), "order has no items of this vendor")
		}
	case models.RoleBuyer:
		if o.BuyerUserID == nil || *o.BuyerUserID != a.ID {
			return apperr.Conflict(o.ID, "", string(ev), "order belongs to another buyer")
		}
	}
	return nil
}

// requireReference keeps manual-method orders in pending until the buyer
// has supplied a proof-of-payment reference. Cancelling needs none.
func requireReference(o *models.Order, ev Event, step Step) error {
	if step.From != models.OrderStatusPending || o.PaymentMethod.Kind() != models.KindManual {
		return nil
	}
	switch step.To {
	case models.OrderStatusPending, models.OrderStatusPendingVerification, models.OrderStatusCancelled:
		return nil
	}
	if o.Payment == nil || strings.TrimSpace(o.Payment.ExternalReference) == "" {
		return conflict(o, ev, "payment reference required")
	}
	return nil
}

func (e *Engine) afterCommit(ctx context.Context, notes []notify.Notification) {
	for _, n := range notes {
		if err := e.notifier.Notify(ctx, n); err != nil {
			slog.ErrorContext(ctx, "notification failed", "order_id", n.OrderID, "kind", n.Kind, "error", err)
		}
	}
	if err := e.cache.Invalidate(ctx); err != nil {
		slog.ErrorContext(ctx, "aggregate cache invalidation failed", "error", err)
	}
}

func (e *Engine) notice(o *models.Order, aud notify.Audience, recipient, kind, msg string) notify.Notification {
	return notify.Notification{
		Audience:    aud,
		RecipientID: recipient,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Kind:        kind,
		Message:     msg,
		At:          e.store.Now(),
	}
}

func (e *Engine) toBuyer(o *models.Order, kind, msg string) notify.Notification {
	var buyer string
	if o.BuyerUserID != nil {
		buyer = *o.BuyerUserID
	}
	return e.notice(o, notify.AudienceBuyer, buyer, kind, msg)
}

func (e *Engine) toPlatform(o *models.Order, kind, msg string) notify.Notification {
	return e.notice(o, notify.AudiencePlatform, "", kind, msg)
}

func (e *Engine) toVendors(o *models.Order, vendors []string, kind, msg string) []notify.Notification {
	out := make([]notify.Notification, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, e.notice(o, notify.AudienceVendor, v, kind, msg))
	}
	return out
}

// SubmitReference records a buyer's proof-of-payment reference and puts
// the order up for verification.
func (e *Engine) SubmitReference(ctx context.Context, orderID string, a Actor, reference string) (*models.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperr.Validation("reference", "payment reference is required")
	}
	return e.apply(ctx, orderID, request{
		event: EventSubmitReference,
		actor: a,
		note:  reference,
		prepare: func(tx *ledger.Tx, o *models.Order, _ map[string]any) error {
			if o.PaymentMethod.Kind() != models.KindManual {
				return conflict(o, EventSubmitReference, "payment method does not take a reference")
			}
			return tx.UpdatePayment(o.ID, map[string]any{"external_reference": reference})
		},
		notices: func(o *models.Order, _ []string) []notify.Notification {
			return []notify.Notification{
				e.toPlatform(o, "reference_submitted", fmt.Sprintf("Payment reference submitted for %s", o.OrderNumber)),
			}
		},
	})
}

func (e *Engine) ConfirmAvailability(ctx context.Context, orderID string, a Actor) (*models.Order, error) {
	return e.apply(ctx, orderID, request{
		event: EventConfirmAvailability,
		actor: a,
		notices: func(o *models.Order, _ []string) []notify.Notification {
			msg := fmt.Sprintf("Order %s is confirmed and ready for pickup", o.OrderNumber)
			return []notify.Notification{
				e.toBuyer(o, "order_ready", msg),
				e.toPlatform(o, "order_ready", msg),
			}
		},
	})
}

func (e *Engine) MarkUnavailable(ctx context.Context, orderID string, a Actor, note string) (*models.Order, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		note = "Items unavailable"
	}
	return e.apply(ctx, orderID, request{
		event: EventMarkUnavailable,
		actor: a,
		note:  note,
		prepare: func(_ *ledger.Tx, o *models.Order, fields map[string]any) error {
			fields["vendor_notes"] = note
			o.VendorNotes = note
			return nil
		},
		notices: func(o *models.Order, _ []string) []notify.Notification {
			msg := fmt.Sprintf("Order %s was cancelled: %s", o.OrderNumber, note)
			return []notify.Notification{
				e.toBuyer(o, "order_cancelled", msg),
				e.toPlatform(o, "order_cancelled", msg),
			}
		},
	})
}

// markHandedOver stamps delivered_at, which starts the escrow countdown.
func markHandedOver(tx *ledger.Tx, o *models.Order, fields map[string]any) error {
	at := tx.Now()
	fields["delivered_at"] = at
	o.DeliveredAt = &at
	return nil
}

// MarkDelivered closes the order and starts the escrow countdown.
func (e *Engine) MarkDelivered(ctx context.Context, orderID string, a Actor) (*models.Order, error) {
	return e.apply(ctx, orderID, request{
		event:   EventMarkDelivered,
		actor:   a,
		prepare: markHandedOver,
		notices: func(o *models.Order, vendors []string) []notify.Notification {
			out := []notify.Notification{
				e.toBuyer(o, "order_delivered", fmt.Sprintf("Order %s was delivered", o.OrderNumber)),
				e.toPlatform(o, "order_delivered", fmt.Sprintf("Order %s delivered, escrow hold started", o.OrderNumber)),
			}
			return append(out, e.toVendors(o, vendors, "order_delivered",
				fmt.Sprintf("Order %s delivered, funds released after %s", o.OrderNumber, e.holdWindow))...)
		},
	})
}

// Complete closes a handed-over order. Completion counts as delivery, so
// the escrow countdown starts here too.
func (e *Engine) Complete(ctx context.Context, orderID string, a Actor) (*models.Order, error) {
	return e.apply(ctx, orderID, request{
		event:   EventComplete,
		actor:   a,
		prepare: markHandedOver,
		notices: func(o *models.Order, _ []string) []notify.Notification {
			return []notify.Notification{e.toBuyer(o, "order_completed", fmt.Sprintf("Order %s is complete", o.OrderNumber))}
		},
	})
}

// Penalty is charged to a vendor as part of a dispute resolution.
type Penalty struct {
	VendorID string
	Amount   decimal.Decimal
	Reason   string
}

type Resolution struct {
	Outcome models.OrderStatus
	Note    string
	Penalty *Penalty
}

// ResolveDispute force-closes an open order with the admin's outcome.
func (e *Engine) ResolveDispute(ctx context.Context, orderID string, a Actor, res Resolution) (*models.Order, error) {
	switch res.Outcome {
	case models.OrderStatusCancelled, models.OrderStatusCompleted, models.OrderStatusReturned:
	default:
		return nil, apperr.Validation("outcome", "outcome must be cancelled, completed or returned")
	}
	if p := res.Penalty; p != nil {
		if p.VendorID == "" {
			return nil, apperr.Validation("penalty.vendor_id", "penalty needs a vendor")
		}
		if !p.Amount.IsPositive() {
			return nil, apperr.Validation("penalty.amount", "penalty amount must be positive")
		}
	}

	return e.apply(ctx, orderID, request{
		event: EventResolveDispute,
		actor: a,
		want:  res.Outcome,
		note:  res.Note,
		prepare: func(tx *ledger.Tx, o *models.Order, fields map[string]any) error {
			if res.Outcome == models.OrderStatusCompleted {
				if err := markHandedOver(tx, o, fields); err != nil {
					return err
				}
			}
			p := res.Penalty
			if p == nil {
				return nil
			}
			owns, err := tx.VendorOwns(o.ID, p.VendorID)
			if err != nil {
				return err
			}
			if !owns {
				return apperr.Validation("penalty.vendor_id", "vendor has no items in this order")
			}
			return tx.AddPenalty(&models.VendorPenalty{VendorID: p.VendorID, OrderID: o.ID, Amount: p.Amount, Reason: p.Reason})
		},
		notices: func(o *models.Order, _ []string) []notify.Notification {
			msg := fmt.Sprintf("Dispute on order %s resolved as %s", o.OrderNumber, o.Status)
			out := []notify.Notification{
				e.toBuyer(o, "dispute_resolved", msg),
				e.toPlatform(o, "dispute_resolved", msg),
			}
			if p := res.Penalty; p != nil {
				out = append(out, e.notice(o, notify.AudienceVendor, p.VendorID, "vendor_penalized",
					fmt.Sprintf("Penalty of %s applied for order %s", p.Amount.StringFixed(2), o.OrderNumber)))
			}
			return out
		},
	})
}

// VerifyPayment marks the funds as received and held in escrow.
func (e *Engine) VerifyPayment(ctx context.Context, orderID string, a Actor) (*models.Order, error) {
	return e.apply(ctx, orderID, request{
		event: EventVerifyPayment,
		actor: a,
		prepare: func(tx *ledger.Tx, o *models.Order, _ map[string]any) error {
			if o.PaymentMethod.Kind() == models.KindManual && (o.Payment == nil || o.Payment.ExternalReference == "") {
				return conflict(o, EventVerifyPayment, "no payment reference submitted")
			}
			return tx.UpdatePayment(o.ID, map[string]any{"verified_by": a.ID, "verified_at": tx.Now()})
		},
		notices: func(o *models.Order, _ []string) []notify.Notification {
			return []notify.Notification{e.toBuyer(o, "payment_verified", fmt.Sprintf("Payment for order %s was verified", o.OrderNumber))}
		},
	})
}

func (e *Engine) RejectPayment(ctx context.Context, orderID string, a Actor, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	return e.apply(ctx, orderID, request{
		event: EventRejectPayment,
		actor: a,
		note:  reason,
		notices: func(o *models.Order, _ []string) []notify.Notification {
			msg := fmt.Sprintf("Payment for order %s could not be verified", o.OrderNumber)
			if reason != "" {
				msg += ": " + reason
			}
			return []notify.Notification{e.toBuyer(o, "payment_rejected", msg)}
		},
	})
}

// ConfirmDeliveryFee fixes the delivery fee and recomputes the total.
func (e *Engine) ConfirmDeliveryFee(ctx context.Context, orderID string, a Actor, fee decimal.Decimal) (*models.Order, error) {
	if fee.IsNegative() {
		return nil, apperr.Validation("delivery_fee", "delivery fee cannot be negative")
	}
	return e.apply(ctx, orderID, request{
		event: EventConfirmDeliveryFee,
		actor: a,
		note:  fee.StringFixed(2),
		prepare: func(_ *ledger.Tx, o *models.Order, fields map[string]any) error {
			o.DeliveryFee = fee
			o.DeliveryFeeConfirmed = true
			o.RecomputeTotal()
			fields["delivery_fee"] = o.DeliveryFee
			fields["delivery_fee_confirmed"] = true
			fields["total_amount"] = o.TotalAmount
			return nil
		},
		notices: func(o *models.Order, _ []string) []notify.Notification {
			return []notify.Notification{e.toBuyer(o, "delivery_fee_confirmed",
				fmt.Sprintf("Delivery fee for order %s is %s, total %s %s",
					o.OrderNumber, o.DeliveryFee.StringFixed(2), o.TotalAmount.StringFixed(2), o.Currency))}
		},
	})
}

// History returns the transition log to anyone allowed to see the order.
func (e *Engine) History(ctx context.Context, orderID string, a Actor) ([]models.OrderEvent, error) {
	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch a.Role {
	case models.RoleAdmin, models.RoleSystem:
	case models.RoleVendor:
		if a.VendorID == "" || !o.HasVendor(a.VendorID) {
			return nil, apperr.Conflict(o.ID, "", "history", "order has no items of this vendor")
		}
	case models.RoleBuyer:
		if o.BuyerUserID == nil || *o.BuyerUserID != a.ID {
			return nil, apperr.Conflict(o.ID, "", "history", "order belongs to another buyer")
		}
	default:
		return nil, apperr.Conflict(o.ID, "", "history", "role may not read order history")
	}
	return e.store.History(ctx, orderID)
}
