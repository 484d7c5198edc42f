package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/notify"
)

var errSessionConsumed = errors.New("reconcile: session already consumed")

// Callback is the processor's out-of-band verdict on a delegated checkout.
// Amount is checked against the session when the processor reports it.
type Callback struct {
	SessionID    string
	Approved     bool
	ProcessorRef string
	Amount       *decimal.Decimal
}

// HandleProcessorCallback turns an approved session into a paid order, or
// marks a declined one failed. Replays of an approved session return the
// order created the first time and notify nobody.
func (e *Engine) HandleProcessorCallback(ctx context.Context, cb Callback) (*models.Order, error) {
	sess, err := e.store.GetSession(ctx, cb.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SessionConsumed && sess.OrderID != nil {
		return e.store.GetOrder(ctx, *sess.OrderID)
	}

	if !cb.Approved {
		if sess.Status == models.SessionFailed {
			return nil, nil
		}
		if err := e.store.MarkSessionFailed(ctx, sess.ID, cb.ProcessorRef); err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "payment session declined", "session_id", sess.ID, "processor_ref", cb.ProcessorRef)
		e.afterCommit(ctx, []notify.Notification{e.sessionNotice(sess, "payment_declined",
			"Your payment was declined. Your order was not placed.")})
		return nil, nil
	}

	if cb.Amount != nil && !cb.Amount.Equal(sess.Amount) {
		return nil, apperr.Conflict("", string(sess.Status), string(EventProcessorPaid),
			fmt.Sprintf("paid amount %s does not match session amount %s", cb.Amount.StringFixed(2), sess.Amount.StringFixed(2)))
	}

	snap, err := sess.Snapshot()
	if err != nil {
		return nil, err
	}
	now := e.store.Now()
	draft := &ledger.OrderDraft{
		Address: snap.Address,
		Order: models.Order{
			BuyerUserID:   sess.BuyerUserID,
			Subtotal:      snap.Subtotal,
			Currency:      sess.Currency,
			PaymentMethod: sess.Method,
			Status:        models.OrderStatusProcessing,
			PaymentStatus: models.PaymentStatusPaid,
			Notes:         snap.Notes,
		},
		Items: snap.Items,
		Payment: models.PaymentRecord{
			ProcessorSessionID: sess.ID,
			ProcessorRef:       cb.ProcessorRef,
			VerifiedBy:         Processor.ID,
			VerifiedAt:         &now,
		},
		Event: models.OrderEvent{
			Event:     string(EventProcessorPaid),
			ActorID:   Processor.ID,
			ActorRole: models.RoleProcessor,
			Note:      cb.ProcessorRef,
		},
	}

	var replay *string
	o, err := e.store.CreateOrder(ctx, draft, e.numbers, func(tx *ledger.Tx, o *models.Order) error {
		locked, err := tx.Session(sess.ID)
		if err != nil {
			return err
		}
		if locked.Status == models.SessionConsumed {
			replay = locked.OrderID
			return errSessionConsumed
		}
		return tx.UpdateSession(sess.ID, map[string]any{
			"status":        models.SessionConsumed,
			"order_id":      o.ID,
			"processor_ref": cb.ProcessorRef,
		})
	})
	if errors.Is(err, errSessionConsumed) && replay != nil {
		return e.store.GetOrder(ctx, *replay)
	}
	if err != nil {
		slog.ErrorContext(ctx, "order creation from payment failed", "session_id", sess.ID, "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "order created from payment",
		"order_id", o.ID, "order_number", o.OrderNumber, "session_id", sess.ID, "processor_ref", cb.ProcessorRef)

	vendors := vendorsOf(o.Items)
	notes := []notify.Notification{
		e.toBuyer(o, "payment_received", fmt.Sprintf("Payment received, order %s placed", o.OrderNumber)),
		e.toPlatform(o, "order_created", fmt.Sprintf("New paid order %s", o.OrderNumber)),
	}
	notes = append(notes, e.toVendors(o, vendors, "order_created", fmt.Sprintf("New order %s to prepare", o.OrderNumber))...)
	e.afterCommit(ctx, notes)
	return o, nil
}

func (e *Engine) sessionNotice(sess *models.PaymentSession, kind, msg string) notify.Notification {
	var buyer string
	if sess.BuyerUserID != nil {
		buyer = *sess.BuyerUserID
	}
	return notify.Notification{
		Audience:    notify.AudienceBuyer,
		RecipientID: buyer,
		Kind:        kind,
		Message:     msg,
		At:          e.store.Now(),
	}
}

func vendorsOf(items []models.OrderItem) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if !seen[it.VendorID] {
			seen[it.VendorID] = true
			out = append(out, it.VendorID)
		}
	}
	return out
}
