// Package testutil builds SQLite-backed stores and fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/models"
)

// Clock is a settable time source.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{t: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// NewStore opens a migrated store on a fresh SQLite file in t.TempDir().
func NewStore(t *testing.T, now func() time.Time) *ledger.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)

	db, err := ledger.Open(ledger.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("ledger.Open() failed: %v", err)
	}
	s := ledger.New(db, now)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// SeedVendor creates a vendor owned by userID.
func SeedVendor(t *testing.T, s *ledger.Store, userID, name string, verified bool) *models.Vendor {
	t.Helper()
	v := &models.Vendor{UserID: userID, Name: name, City: "Douala", Verified: verified, CreatedAt: s.Now()}
	if err := s.CreateVendor(context.Background(), v); err != nil {
		t.Fatalf("CreateVendor() failed: %v", err)
	}
	return v
}

// Item is a one-line item of qty × price for vendorID.
func Item(vendorID, productID string, qty int, price int64) models.OrderItem {
	return models.NewOrderItem(productID, vendorID, "product "+productID, "img/"+productID+".png", qty, decimal.NewFromInt(price))
}

// Draft builds a pending manual-payment draft with the given items.
func Draft(buyerID string, items ...models.OrderItem) *ledger.OrderDraft {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal)
	}
	var buyer *string
	if buyerID != "" {
		buyer = &buyerID
	}
	return &ledger.OrderDraft{
		Address: models.Address{
			OwnerUserID: buyer,
			FullName:    "Awa Ngono",
			Phone:       "+237600000000",
			AddressLine: "Rue 1.234",
			City:        "Yaounde",
		},
		Order: models.Order{
			BuyerUserID:   buyer,
			Subtotal:      subtotal,
			Currency:      "XAF",
			PaymentMethod: models.PaymentMethodOrangeMoney,
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusPending,
			Notes:         "ref: OM-123",
		},
		Items:   items,
		Payment: models.PaymentRecord{ExternalReference: "OM-123"},
		Event:   models.OrderEvent{Event: "checkout", ActorID: buyerID, ActorRole: models.RoleBuyer},
	}
}

var seq struct {
	mu sync.Mutex
	n  int
}

// SequentialNumbers returns unique order numbers for tests.
func SequentialNumbers() string {
	seq.mu.Lock()
	defer seq.mu.Unlock()
	seq.n++
	return fmt.Sprintf("YAR-2026-%06d", seq.n)
}

// CreateOrder commits Draft(buyerID, items...) and returns the stored order.
func CreateOrder(t *testing.T, s *ledger.Store, buyerID string, items ...models.OrderItem) *models.Order {
	t.Helper()
	o, err := s.CreateOrder(context.Background(), Draft(buyerID, items...), SequentialNumbers, nil)
	if err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}
	return o
}

// ForceStatus rewrites status columns without consulting the state machine.
// The write still goes through the ledger so the platform totals follow.
func ForceStatus(t *testing.T, s *ledger.Store, orderID string, status models.OrderStatus, pay models.PaymentStatus) {
	t.Helper()
	err := s.Transact(context.Background(), func(tx *ledger.Tx) error {
		o, err := tx.Order(orderID)
		if err != nil {
			return err
		}
		return tx.UpdateOrder(o, map[string]any{"status": status, "payment_status": pay})
	})
	if err != nil {
		t.Fatalf("ForceStatus() failed: %v", err)
	}
}
