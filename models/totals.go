package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlatformTotalsID is the key of the single platform totals row.
const PlatformTotalsID = "platform"

// PlatformTotals is the materialized all-time aggregate. It is adjusted in
// the same transaction as every order insert and order update.
type PlatformTotals struct {
	ID            string          `gorm:"primaryKey;type:varchar(16)" json:"-"`
	Revenue       decimal.Decimal `gorm:"type:decimal(16,2);not null;default:0" json:"revenue"`
	PendingEscrow decimal.Decimal `gorm:"type:decimal(16,2);not null;default:0" json:"pending_escrow"`
	OrderCount    int64           `gorm:"not null;default:0" json:"order_count"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CountsAsRevenue reports whether the order is paid and was neither
// cancelled nor returned.
func (o *Order) CountsAsRevenue() bool {
	if o.PaymentStatus != PaymentStatusPaid {
		return false
	}
	return o.Status != OrderStatusCancelled && o.Status != OrderStatusReturned
}

// HeldInEscrow reports whether the order is paid but not yet delivered.
func (o *Order) HeldInEscrow() bool {
	return o.PaymentStatus == PaymentStatusPaid && o.Status != OrderStatusDelivered
}
