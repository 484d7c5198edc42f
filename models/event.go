package models

import "time"

// OrderEvent is one row of the append-only transition log of an order.
type OrderEvent struct {
	ID         string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID    string      `gorm:"type:varchar(36);index:idx_order_events_order;not null" json:"order_id"`
	Event      string      `gorm:"type:varchar(32);not null" json:"event"`
	FromStatus OrderStatus `gorm:"type:varchar(24)" json:"from_status"`
	ToStatus   OrderStatus `gorm:"type:varchar(24)" json:"to_status"`
	ActorID    string      `gorm:"type:varchar(64)" json:"actor_id"`
	ActorRole  Role        `gorm:"type:varchar(16)" json:"actor_role"`
	Note       string      `json:"note,omitempty"`
	CreatedAt  time.Time   `gorm:"index:idx_order_events_order" json:"created_at"`
}

// All lists every table the service migrates.
func All() []any {
	return []any{
		&Profile{},
		&RoleGrant{},
		&Vendor{},
		&VendorPenalty{},
		&Address{},
		&Order{},
		&OrderItem{},
		&PaymentRecord{},
		&PaymentSession{},
		&OrderEvent{},
		&PlatformTotals{},
	}
}
