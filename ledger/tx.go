package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/models"
)

// ErrStaleVersion means another writer changed the order since it was read.
var ErrStaleVersion = errors.New("ledger: order version is stale")

// Tx is the write side of one transaction.
type Tx struct {
	db  *gorm.DB
	now time.Time
}

func (t *Tx) Now() time.Time {
	return t.now
}

// Order loads an order with its payment record.
func (t *Tx) Order(id string) (*models.Order, error) {
	var o models.Order
	if err := t.db.Preload("Payment").First(&o, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("order", id)
		}
		return nil, fmt.Errorf("ledger: load order %s: %w", id, err)
	}
	return &o, nil
}

// VendorOwns reports whether the order has at least one item of the vendor.
func (t *Tx) VendorOwns(orderID, vendorID string) (bool, error) {
	var n int64
	err := t.db.Model(&models.OrderItem{}).
		Where("order_id = ? AND vendor_id = ?", orderID, vendorID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("ledger: ownership of %s: %w", orderID, err)
	}
	return n > 0, nil
}

// OrderVendorIDs lists the distinct vendors that have items in the order.
func (t *Tx) OrderVendorIDs(orderID string) ([]string, error) {
	var ids []string
	err := t.db.Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Distinct("vendor_id").
		Order("vendor_id").
		Pluck("vendor_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: vendors of %s: %w", orderID, err)
	}
	return ids, nil
}

// UpdateOrder applies changes only if the row still has o.Version and moves
// the platform totals by the difference. On success o.Version is advanced;
// on a lost race ErrStaleVersion is returned.
func (t *Tx) UpdateOrder(o *models.Order, changes map[string]any) error {
	before, err := t.totalsSnapshot(o.ID)
	if err != nil {
		return err
	}
	changes["version"] = gorm.Expr("version + 1")
	changes["updated_at"] = t.now

	res := t.db.Model(&models.Order{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(changes)
	if res.Error != nil {
		return fmt.Errorf("ledger: update order %s: %w", o.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	after, err := t.totalsSnapshot(o.ID)
	if err != nil {
		return err
	}
	if err := t.adjustTotals(before, after); err != nil {
		return err
	}
	o.Version++
	o.UpdatedAt = t.now
	return nil
}

func (t *Tx) UpdatePayment(orderID string, changes map[string]any) error {
	res := t.db.Model(&models.PaymentRecord{}).Where("order_id = ?", orderID).Updates(changes)
	if res.Error != nil {
		return fmt.Errorf("ledger: update payment %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("payment record", orderID)
	}
	return nil
}

// AppendEvent adds a row to the transition log.
func (t *Tx) AppendEvent(ev *models.OrderEvent) error {
	if ev.ID == "" {
		// v7 ids sort by creation, which keeps history stable within one timestamp
		ev.ID = uuid.Must(uuid.NewV7()).String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = t.now
	}
	if err := t.db.Create(ev).Error; err != nil {
		return fmt.Errorf("ledger: append event %s for %s: %w", ev.Event, ev.OrderID, err)
	}
	return nil
}

func (t *Tx) AddPenalty(p *models.VendorPenalty) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = t.now
	if err := t.db.Create(p).Error; err != nil {
		return fmt.Errorf("ledger: add penalty for %s: %w", p.VendorID, err)
	}
	return nil
}

// OrderDraft is everything a checkout commits at once.
type OrderDraft struct {
	Address models.Address
	Order   models.Order
	Items   []models.OrderItem
	Payment models.PaymentRecord
	Event   models.OrderEvent
}

// InsertOrder writes address, order, items, payment record and the
// creation event, in that order, filling ids and foreign keys.
func (t *Tx) InsertOrder(d *OrderDraft, orderNumber string) (*models.Order, error) {
	if len(d.Items) == 0 {
		return nil, apperr.Validation("items", "an order needs at least one item")
	}

	addr := d.Address
	addr.ID = uuid.NewString()
	addr.CreatedAt = t.now
	if err := t.db.Create(&addr).Error; err != nil {
		return nil, fmt.Errorf("ledger: create address: %w", err)
	}

	o := d.Order
	o.ID = uuid.NewString()
	o.OrderNumber = orderNumber
	o.ShippingAddressID = addr.ID
	o.Version = 1
	o.CreatedAt = t.now
	o.UpdatedAt = t.now
	o.RecomputeTotal()
	if err := t.db.Omit(clause.Associations).Create(&o).Error; err != nil {
		return nil, fmt.Errorf("ledger: create order: %w", err)
	}
	if err := t.adjustTotals(nil, &o); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, len(d.Items))
	for i, it := range d.Items {
		it.ID = 0
		it.OrderID = o.ID
		items[i] = it
	}
	if err := t.db.Create(&items).Error; err != nil {
		return nil, fmt.Errorf("ledger: create items for %s: %w", o.ID, err)
	}

	pay := d.Payment
	pay.OrderID = o.ID
	pay.Method = o.PaymentMethod
	if err := t.db.Create(&pay).Error; err != nil {
		return nil, fmt.Errorf("ledger: create payment record for %s: %w", o.ID, err)
	}

	ev := d.Event
	ev.OrderID = o.ID
	ev.ToStatus = o.Status
	if err := t.AppendEvent(&ev); err != nil {
		return nil, err
	}

	o.ShippingAddress = &addr
	o.Items = items
	o.Payment = &pay
	return &o, nil
}

// Session loads a delegated-payment session, locking it where the driver supports it.
func (t *Tx) Session(id string) (*models.PaymentSession, error) {
	var s models.PaymentSession
	q := t.db
	if t.db.Dialector.Name() == DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&s, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("payment session", id)
		}
		return nil, fmt.Errorf("ledger: load session %s: %w", id, err)
	}
	return &s, nil
}

func (t *Tx) UpdateSession(id string, changes map[string]any) error {
	changes["updated_at"] = t.now
	if err := t.db.Model(&models.PaymentSession{}).Where("id = ?", id).Updates(changes).Error; err != nil {
		return fmt.Errorf("ledger: update session %s: %w", id, err)
	}
	return nil
}
