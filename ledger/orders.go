package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/models"
)

// MaxOrderNumberAttempts bounds the retries on an order-number collision.
const MaxOrderNumberAttempts = 5

// ErrOrderNumberExhausted means every generated order number collided.
var ErrOrderNumberExhausted = errors.New("ledger: could not allocate a unique order number")

// CreateOrder commits a draft atomically. If the generated order number is
// already taken the whole transaction is retried with a new number. The
// optional within hook runs in the same transaction after the insert.
func (s *Store) CreateOrder(ctx context.Context, d *OrderDraft, nextNumber func() string, within func(tx *Tx, o *models.Order) error) (*models.Order, error) {
	for attempt := 1; attempt <= MaxOrderNumberAttempts; attempt++ {
		var created *models.Order
		err := s.Transact(ctx, func(tx *Tx) error {
			o, err := tx.InsertOrder(d, nextNumber())
			if err != nil {
				return err
			}
			if within != nil {
				if err := within(tx, o); err != nil {
					return err
				}
			}
			created = o
			return nil
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	}
	return nil, ErrOrderNumberExhausted
}

// GetOrder loads an order with items, address and payment record.
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("ShippingAddress").
		Preload("Payment").
		First(&o, "id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("order", id)
		}
		return nil, fmt.Errorf("ledger: get order %s: %w", id, err)
	}
	return &o, nil
}

// OrderCount counts every order row.
func (s *Store) OrderCount(ctx context.Context) (int64, error) {
	return countOrders(s.db.WithContext(ctx))
}

func countOrders(db *gorm.DB) (int64, error) {
	var n int64
	if err := db.Model(&models.Order{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("ledger: count orders: %w", err)
	}
	return n, nil
}

// BuyerOrders lists a buyer's orders, newest first.
func (s *Store) BuyerOrders(ctx context.Context, buyerID string, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("buyer_user_id = ?", buyerID).
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: buyer orders %s: %w", buyerID, err)
	}
	return orders, nil
}

// VendorOrders lists orders holding at least one of the vendor's items.
// Only that vendor's items are loaded.
func (s *Store) VendorOrders(ctx context.Context, vendorID string, status *models.OrderStatus, limit int) ([]models.Order, error) {
	db := s.db.WithContext(ctx)
	owned := db.Model(&models.OrderItem{}).Select("order_id").Where("vendor_id = ?", vendorID)

	q := db.Where("id IN (?)", owned)
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var orders []models.Order
	err := q.
		Preload("Items", "vendor_id = ?", vendorID).
		Preload("ShippingAddress").
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: vendor orders %s: %w", vendorID, err)
	}
	return orders, nil
}

// History returns the transition log of an order, oldest first.
func (s *Store) History(ctx context.Context, orderID string) ([]models.OrderEvent, error) {
	var events []models.OrderEvent
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: history of %s: %w", orderID, err)
	}
	return events, nil
}

// CreateSession stores a delegated-checkout snapshot.
func (s *Store) CreateSession(ctx context.Context, sess *models.PaymentSession) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.Status == "" {
		sess.Status = models.SessionOpen
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return fmt.Errorf("ledger: create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.PaymentSession, error) {
	var sess models.PaymentSession
	if err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("payment session", id)
		}
		return nil, fmt.Errorf("ledger: get session %s: %w", id, err)
	}
	return &sess, nil
}

// MarkSessionFailed flags a session whose redirect or payment failed.
func (s *Store) MarkSessionFailed(ctx context.Context, id, processorRef string) error {
	return s.Transact(ctx, func(tx *Tx) error {
		return tx.UpdateSession(id, map[string]any{
			"status":        models.SessionFailed,
			"processor_ref": processorRef,
		})
	})
}
