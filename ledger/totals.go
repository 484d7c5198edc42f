package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"

	"github.com/junaidrashid-git/yar-marketplace/models"
)

// totalsColumns are the order columns the platform totals depend on.
var totalsColumns = []string{"id", "status", "payment_status", "total_amount"}

// contribution is what a single order adds to the platform totals.
type contribution struct {
	revenue decimal.Decimal
	escrow  decimal.Decimal
}

func contributionOf(o *models.Order) contribution {
	c := contribution{revenue: decimal.Zero, escrow: decimal.Zero}
	if o == nil {
		return c
	}
	if o.CountsAsRevenue() {
		c.revenue = o.TotalAmount
	}
	if o.HeldInEscrow() {
		c.escrow = o.TotalAmount
	}
	return c
}

// totalsSnapshot reads the columns of one order that feed the totals.
func (t *Tx) totalsSnapshot(orderID string) (*models.Order, error) {
	var o models.Order
	if err := t.db.Select(totalsColumns).First(&o, "id = ?", orderID).Error; err != nil {
		return nil, fmt.Errorf("ledger: totals snapshot of %s: %w", orderID, err)
	}
	return &o, nil
}

// adjustTotals moves the platform totals from before to after. A nil before
// is a new order.
func (t *Tx) adjustTotals(before, after *models.Order) error {
	from, to := contributionOf(before), contributionOf(after)
	added := int64(0)
	if before == nil {
		added = 1
	}
	revenue := to.revenue.Sub(from.revenue)
	escrow := to.escrow.Sub(from.escrow)
	if revenue.IsZero() && escrow.IsZero() && added == 0 {
		return nil
	}

	tot, err := t.lockTotals()
	if err != nil {
		return err
	}
	err = t.db.Model(tot).Updates(map[string]any{
		"revenue":        tot.Revenue.Add(revenue),
		"pending_escrow": tot.PendingEscrow.Add(escrow),
		"order_count":    tot.OrderCount + added,
		"updated_at":     t.now,
	}).Error
	if err != nil {
		return fmt.Errorf("ledger: adjust totals: %w", err)
	}
	return nil
}

// lockTotals loads the totals row for update, creating it when missing.
func (t *Tx) lockTotals() (*models.PlatformTotals, error) {
	q := t.db
	if t.db.Dialector.Name() == DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	tot := models.PlatformTotals{ID: models.PlatformTotalsID, Revenue: decimal.Zero, PendingEscrow: decimal.Zero}
	if err := q.Where(models.PlatformTotals{ID: models.PlatformTotalsID}).FirstOrCreate(&tot).Error; err != nil {
		return nil, fmt.Errorf("ledger: lock totals: %w", err)
	}
	return &tot, nil
}

// Totals returns the materialized all-time aggregate.
func (s *Store) Totals(ctx context.Context) (models.PlatformTotals, error) {
	var tot models.PlatformTotals
	err := s.db.WithContext(ctx).
		Where(models.PlatformTotals{ID: models.PlatformTotalsID}).
		Attrs(models.PlatformTotals{Revenue: decimal.Zero, PendingEscrow: decimal.Zero}).
		FirstOrInit(&tot).Error
	if err != nil {
		return models.PlatformTotals{}, fmt.Errorf("ledger: read totals: %w", err)
	}
	return tot, nil
}

// TotalsTx is a transaction that holds the totals row lock. Order writes
// that move the totals wait for it, so a recomputation done through it
// cannot miss a concurrent adjustment.
type TotalsTx struct {
	tx     *Tx
	stored models.PlatformTotals
}

// Stored is the materialized totals as of acquiring the lock.
func (t *TotalsTx) Stored() models.PlatformTotals {
	return t.stored
}

func (t *TotalsTx) EachOrder(batchSize, maxRows int, fn func(batch []models.Order) error) error {
	return eachOrder(t.tx.db, batchSize, maxRows, fn)
}

func (t *TotalsTx) OrderCount() (int64, error) {
	return countOrders(t.tx.db)
}

// Replace overwrites the materialized totals.
func (t *TotalsTx) Replace(tot models.PlatformTotals) error {
	err := t.tx.db.Model(&models.PlatformTotals{ID: models.PlatformTotalsID}).Updates(map[string]any{
		"revenue":        tot.Revenue,
		"pending_escrow": tot.PendingEscrow,
		"order_count":    tot.OrderCount,
		"updated_at":     t.tx.now,
	}).Error
	if err != nil {
		return fmt.Errorf("ledger: replace totals: %w", err)
	}
	return nil
}

// WithTotalsLock runs fn in one transaction holding the totals row lock.
func (s *Store) WithTotalsLock(ctx context.Context, fn func(t *TotalsTx) error) error {
	return s.Transact(ctx, func(tx *Tx) error {
		tot, err := tx.lockTotals()
		if err != nil {
			return err
		}
		return fn(&TotalsTx{tx: tx, stored: *tot})
	})
}
