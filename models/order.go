package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string

const (
	// Order statuses
	OrderStatusPending             OrderStatus = "pending"              // Placed, awaiting vendor / payment check
	OrderStatusPendingVerification OrderStatus = "pending_verification" // Buyer re-submitted a payment reference
	OrderStatusPaid                OrderStatus = "paid"                 // Captured, not yet confirmed by a vendor
	OrderStatusProcessing          OrderStatus = "processing"           // Vendor confirmed availability
	OrderStatusDelivered           OrderStatus = "delivered"            // Handed over to the buyer
	OrderStatusCompleted           OrderStatus = "completed"            // Closed without a delivery step
	OrderStatusReturned            OrderStatus = "returned"             // Goods sent back after a dispute
	OrderStatusCancelled           OrderStatus = "cancelled"            // Cancelled by vendor or admin

	// Payment statuses
	PaymentStatusUnpaid  PaymentStatus = "unpaid"  // Nothing submitted yet
	PaymentStatusPending PaymentStatus = "pending" // Reference submitted / processor pending
	PaymentStatusPaid    PaymentStatus = "paid"    // Funds confirmed, held in escrow
	PaymentStatusFailed  PaymentStatus = "failed"  // Verification or capture failed
)

var orderStatuses = []OrderStatus{
	OrderStatusPending, OrderStatusPendingVerification, OrderStatusPaid, OrderStatusProcessing,
	OrderStatusDelivered, OrderStatusCompleted, OrderStatusReturned, OrderStatusCancelled,
}

// ParseOrderStatus maps a case-insensitive string to an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range orderStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// Terminal reports whether no further transition may leave the status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusCompleted, OrderStatusDelivered, OrderStatusReturned:
		return true
	}
	return false
}

type Order struct {
	ID                   string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderNumber          string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"order_number"`
	BuyerUserID          *string         `gorm:"type:varchar(64);index" json:"buyer_user_id,omitempty"`
	ShippingAddressID    string          `gorm:"type:varchar(36);not null" json:"shipping_address_id"`
	ShippingAddress      *Address        `gorm:"foreignKey:ShippingAddressID" json:"shipping_address,omitempty"`
	Items                []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Payment              *PaymentRecord  `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
	Subtotal             decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
	DeliveryFee          decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"delivery_fee"`
	DeliveryFeeConfirmed bool            `json:"delivery_fee_confirmed"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	Currency             string          `gorm:"type:varchar(3);not null" json:"currency"`
	PaymentMethod        PaymentMethod   `gorm:"type:VARCHAR(20);not null" json:"payment_method"`
	Status               OrderStatus     `gorm:"type:VARCHAR(24);default:'pending';index" json:"status"`
	PaymentStatus        PaymentStatus   `gorm:"type:VARCHAR(20);default:'pending';index" json:"payment_status"`
	Notes                string          `json:"notes"`
	VendorNotes          string          `json:"vendor_notes,omitempty"`
	Version              int             `gorm:"not null;default:1" json:"version"`
	DeliveredAt          *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt            time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// RecomputeTotal keeps TotalAmount = Subtotal + DeliveryFee.
func (o *Order) RecomputeTotal() {
	o.TotalAmount = o.Subtotal.Add(o.DeliveryFee)
}

// HasVendor reports whether at least one loaded item belongs to vendorID.
func (o *Order) HasVendor(vendorID string) bool {
	for _, it := range o.Items {
		if it.VendorID == vendorID {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         string          `gorm:"type:varchar(36);index;not null" json:"order_id"`
	ProductID       string          `gorm:"type:varchar(64);not null" json:"product_id"`
	VendorID        string          `gorm:"type:varchar(36);index;not null" json:"vendor_id"`
	ProductName     string          `json:"product_name"`
	ProductImageRef string          `json:"product_image_ref"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_price"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"line_total"`
}

// NewOrderItem fills LineTotal from quantity and unit price.
func NewOrderItem(productID, vendorID, name, imageRef string, qty int, unitPrice decimal.Decimal) OrderItem {
	return OrderItem{
		ProductID:       productID,
		VendorID:        vendorID,
		ProductName:     name,
		ProductImageRef: imageRef,
		Quantity:        qty,
		UnitPrice:       unitPrice,
		LineTotal:       unitPrice.Mul(decimal.NewFromInt(int64(qty))),
	}
}
