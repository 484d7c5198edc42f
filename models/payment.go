package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodPaypal      PaymentMethod = "paypal"
	PaymentMethodOrangeMoney PaymentMethod = "orange_money"
	PaymentMethodMTNMomo     PaymentMethod = "mtn_momo"
	PaymentMethodBinance     PaymentMethod = "binance"
	PaymentMethodCash        PaymentMethod = "cash"
)

// PaymentKind tags the checkout path a method goes through.
type PaymentKind int

const (
	KindUnknown    PaymentKind = iota
	KindDelegated              // processor redirect, order created by callback
	KindManual                 // buyer transfers funds and submits a reference
	KindOnDelivery             // paid at hand-over, verified by admin
)

// ParsePaymentMethod maps a case-insensitive string to a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if m.Kind() == KindUnknown {
		return "", false
	}
	return m, true
}

func (m PaymentMethod) Kind() PaymentKind {
	switch m {
	case PaymentMethodCard, PaymentMethodPaypal:
		return KindDelegated
	case PaymentMethodOrangeMoney, PaymentMethodMTNMomo, PaymentMethodBinance:
		return KindManual
	case PaymentMethodCash:
		return KindOnDelivery
	}
	return KindUnknown
}

// PaymentRecord holds the proof-of-payment side of an order.
type PaymentRecord struct {
	OrderID            string        `gorm:"primaryKey;type:varchar(36)" json:"order_id"`
	Method             PaymentMethod `gorm:"type:VARCHAR(20);not null" json:"method"`
	ExternalReference  string        `json:"external_reference,omitempty"`
	ProcessorSessionID string        `gorm:"type:varchar(64);index" json:"processor_session_id,omitempty"`
	ProcessorRef       string        `json:"processor_ref,omitempty"`
	VerifiedBy         string        `json:"verified_by,omitempty"`
	VerifiedAt         *time.Time    `json:"verified_at,omitempty"`
	EscrowReleasedAt   *time.Time    `json:"escrow_released_at,omitempty"`
}

type SessionStatus string

const (
	SessionOpen     SessionStatus = "open"
	SessionConsumed SessionStatus = "consumed"
	SessionFailed   SessionStatus = "failed"
)

// PaymentSession snapshots a delegated checkout until the processor reports back.
type PaymentSession struct {
	ID           string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Method       PaymentMethod   `gorm:"type:VARCHAR(20);not null" json:"method"`
	BuyerUserID  *string         `gorm:"type:varchar(64)" json:"buyer_user_id,omitempty"`
	Amount       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Currency     string          `gorm:"type:varchar(3);not null" json:"currency"`
	Payload      string          `gorm:"type:text;not null" json:"-"`
	ProcessorRef string          `json:"processor_ref,omitempty"`
	Status       SessionStatus   `gorm:"type:VARCHAR(12);not null;default:'open'" json:"status"`
	OrderID      *string         `gorm:"type:varchar(36)" json:"order_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SessionSnapshot is the cart and delivery details captured when a
// delegated checkout starts. The processor callback builds the order from it.
type SessionSnapshot struct {
	Address  Address         `json:"address"`
	Email    string          `json:"email,omitempty"`
	Notes    string          `json:"notes,omitempty"`
	Items    []OrderItem     `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (s *PaymentSession) SetSnapshot(snap SessionSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}
	s.Payload = string(b)
	return nil
}

func (s *PaymentSession) Snapshot() (SessionSnapshot, error) {
	var snap SessionSnapshot
	if err := json.Unmarshal([]byte(s.Payload), &snap); err != nil {
		return snap, fmt.Errorf("decode session snapshot %s: %w", s.ID, err)
	}
	return snap, nil
}
