package ledger

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/junaidrashid-git/yar-marketplace/models"
)

// aggregateColumns is all the aggregates need from an order row.
var aggregateColumns = []string{"id", "order_number", "buyer_user_id", "total_amount", "currency", "payment_method", "status", "payment_status", "created_at", "updated_at"}

// EachOrder streams orders in primary-key batches, stopping after maxRows.
func (s *Store) EachOrder(ctx context.Context, batchSize, maxRows int, fn func(batch []models.Order) error) error {
	return eachOrder(s.db.WithContext(ctx), batchSize, maxRows, fn)
}

func eachOrder(db *gorm.DB, batchSize, maxRows int, fn func(batch []models.Order) error) error {
	q := db.Model(&models.Order{}).Select(aggregateColumns)
	if maxRows > 0 {
		q = q.Limit(maxRows)
	}
	var batch []models.Order
	res := q.FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		return fn(batch)
	})
	if res.Error != nil {
		return fmt.Errorf("ledger: scan orders: %w", res.Error)
	}
	return nil
}

// OrdersBetween returns orders created in [from, to), capped at limit rows.
func (s *Store) OrdersBetween(ctx context.Context, from, to time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Select(aggregateColumns).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: orders between: %w", err)
	}
	return orders, nil
}

// OrdersWithStatus returns the newest orders in the given status.
func (s *Store) OrdersWithStatus(ctx context.Context, status models.OrderStatus, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("updated_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: orders with status %s: %w", status, err)
	}
	return orders, nil
}

// ProfileIDs lists profile ids, optionally only those created in [from, to).
func (s *Store) ProfileIDs(ctx context.Context, from, to *time.Time) ([]string, error) {
	q := s.db.WithContext(ctx).Model(&models.Profile{})
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at < ?", *to)
	}
	var ids []string
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("ledger: profile ids: %w", err)
	}
	return ids, nil
}

func (s *Store) VendorUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Vendor{}).Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("ledger: vendor user ids: %w", err)
	}
	return ids, nil
}

func (s *Store) AdminUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.RoleGrant{}).
		Where("role = ?", models.RoleAdmin).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: admin user ids: %w", err)
	}
	return ids, nil
}

// DueForRelease returns delivered or completed, paid orders whose escrow is
// still held and whose hand-over happened at or before cutoff.
func (s *Store) DueForRelease(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Joins("JOIN payment_records ON payment_records.order_id = orders.id").
		Where("orders.status IN ? AND orders.payment_status = ?",
			[]models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusCompleted}, models.PaymentStatusPaid).
		Where("orders.delivered_at IS NOT NULL AND orders.delivered_at <= ?", cutoff).
		Where("payment_records.escrow_released_at IS NULL").
		Order("orders.delivered_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: orders due for release: %w", err)
	}
	return orders, nil
}
