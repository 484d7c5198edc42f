package oversight

import (
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/models"
)

// Revenue sums totalAmount over paid orders that were not cancelled or returned.
func Revenue(orders []models.Order) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		if o.CountsAsRevenue() {
			sum = sum.Add(o.TotalAmount)
		}
	}
	return sum
}

// PendingEscrow sums totalAmount over paid orders not yet delivered.
func PendingEscrow(orders []models.Order) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		if o.HeldInEscrow() {
			sum = sum.Add(o.TotalAmount)
		}
	}
	return sum
}

// TrendPercent is the change from previous to current in percent. With no
// previous value it is 100 when current is positive and 0 otherwise.
func TrendPercent(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// DeriveClients returns the distinct profile ids that are neither vendors
// nor admins, sorted. A user can hold a profile and a vendor or admin role
// at once, so client is always computed, never stored.
func DeriveClients(profileIDs, vendorUserIDs, adminUserIDs []string) []string {
	staff := make(map[string]struct{}, len(vendorUserIDs)+len(adminUserIDs))
	for _, id := range vendorUserIDs {
		staff[id] = struct{}{}
	}
	for _, id := range adminUserIDs {
		staff[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(profileIDs))
	clients := make([]string, 0, len(profileIDs))
	for _, id := range profileIDs {
		if _, ok := staff[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		clients = append(clients, id)
	}
	slices.Sort(clients)
	return clients
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

type TicketKind string

const (
	TicketOrder  TicketKind = "order"
	TicketVendor TicketKind = "vendor"
)

// Ticket is a support-queue item projected from a cancelled order or an
// unverified vendor. It is never stored; resolving it means acting on the
// order or vendor it points at.
type Ticket struct {
	ID        string           `json:"id"`
	Kind      TicketKind       `json:"kind"`
	SubjectID string           `json:"subject_id"`
	Priority  Priority         `json:"priority"`
	Title     string           `json:"title"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// DeriveTickets builds the queue: high first, then medium, then low, and
// newest first within a priority.
func DeriveTickets(orders []models.Order, vendors []models.Vendor, threshold decimal.Decimal) []Ticket {
	var tickets []Ticket
	for _, o := range orders {
		if o.Status != models.OrderStatusCancelled {
			continue
		}
		p := PriorityLow
		if o.TotalAmount.GreaterThan(threshold) || o.PaymentStatus == models.PaymentStatusFailed {
			p = PriorityHigh
		}
		amount := o.TotalAmount
		tickets = append(tickets, Ticket{
			ID:        "order-" + o.ID,
			Kind:      TicketOrder,
			SubjectID: o.ID,
			Priority:  p,
			Title:     "Cancelled order " + o.OrderNumber,
			Amount:    &amount,
			CreatedAt: o.UpdatedAt,
		})
	}
	for _, v := range vendors {
		if v.Verified {
			continue
		}
		tickets = append(tickets, Ticket{
			ID:        "vendor-" + v.ID,
			Kind:      TicketVendor,
			SubjectID: v.ID,
			Priority:  PriorityMedium,
			Title:     "Vendor awaiting verification: " + v.Name,
			CreatedAt: v.CreatedAt,
		})
	}

	sort.SliceStable(tickets, func(i, j int) bool {
		a, b := tickets[i], tickets[j]
		if a.Priority != b.Priority {
			return a.Priority.rank() < b.Priority.rank()
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return tickets
}
