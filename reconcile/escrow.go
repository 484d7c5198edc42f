package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/notify"
)

const releaseBatch = 200

// ReleaseEscrow hands the held funds of a delivered or completed, paid
// order to its vendors. Admins may call it before the hold window ends.
func (e *Engine) ReleaseEscrow(ctx context.Context, orderID string, a Actor) (*models.Order, error) {
	return e.apply(ctx, orderID, request{
		event: EventReleaseEscrow,
		actor: a,
		prepare: func(tx *ledger.Tx, o *models.Order, _ map[string]any) error {
			if o.Payment == nil {
				return conflict(o, EventReleaseEscrow, "order has no payment record")
			}
			if o.Payment.EscrowReleasedAt != nil {
				return conflict(o, EventReleaseEscrow, "escrow already released")
			}
			at := tx.Now()
			o.Payment.EscrowReleasedAt = &at
			return tx.UpdatePayment(o.ID, map[string]any{"escrow_released_at": at})
		},
		notices: func(o *models.Order, vendors []string) []notify.Notification {
			msg := fmt.Sprintf("Funds for order %s were released", o.OrderNumber)
			return append(e.toVendors(o, vendors, "escrow_released", msg), e.toPlatform(o, "escrow_released", msg))
		},
	})
}

// ReleaseDue releases every order delivered at least one hold window
// before now. Orders another worker released meanwhile are skipped.
func (e *Engine) ReleaseDue(ctx context.Context, now time.Time) (int, error) {
	due, err := e.store.DueForRelease(ctx, now.Add(-e.holdWindow), releaseBatch)
	if err != nil {
		return 0, err
	}

	released := 0
	var errs []error
	for _, o := range due {
		if err := ctx.Err(); err != nil {
			return released, err
		}
		if _, err := e.ReleaseEscrow(ctx, o.ID, System); err != nil {
			if apperr.IsConflict(err) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		released++
	}
	return released, errors.Join(errs...)
}

// Sweeper runs ReleaseDue on a fixed interval until its context ends.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(e *Engine, interval time.Duration, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{engine: e, interval: interval, now: now}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "escrow sweeper started", "interval", s.interval, "hold_window", s.engine.holdWindow)
	for {
		s.Sweep(ctx)
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "escrow sweeper stopped")
			return
		case next := <-ticker.C:
			slog.DebugContext(ctx, "escrow sweep tick", "at", next.UTC())
		}
	}
}

// Sweep runs one release pass and logs the outcome.
func (s *Sweeper) Sweep(ctx context.Context) int {
	n, err := s.engine.ReleaseDue(ctx, s.now())
	if err != nil {
		slog.ErrorContext(ctx, "escrow sweep failed", "released", n, "error", err)
		return n
	}
	if n > 0 {
		slog.InfoContext(ctx, "escrow released", "orders", n)
	}
	return n
}
