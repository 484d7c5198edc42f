package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Vendor struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	City      string    `json:"city"`
	Phone     string    `json:"phone"`
	Verified  bool      `gorm:"index" json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VendorPenalty is charged to a vendor when an admin resolves a dispute against them.
type VendorPenalty struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	VendorID  string          `gorm:"type:varchar(36);index;not null" json:"vendor_id"`
	OrderID   string          `gorm:"type:varchar(36);index;not null" json:"order_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Reason    string          `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}
