package oversight

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junaidrashid-git/yar-marketplace/models"
)

func order(id string, status models.OrderStatus, pay models.PaymentStatus, total int64) models.Order {
	return models.Order{
		ID:            id,
		OrderNumber:   "YAR-2026-" + id,
		Status:        status,
		PaymentStatus: pay,
		TotalAmount:   decimal.NewFromInt(total),
	}
}

func TestTrendPercent(t *testing.T) {
	tests := []struct {
		current, previous, want float64
	}{
		{0, 0, 0},
		{50, 0, 100},
		{150, 100, 50},
		{50, 100, -50},
		{0, 40, -100},
		{-5, 0, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, TrendPercent(tt.current, tt.previous), 1e-9, "TrendPercent(%v, %v)", tt.current, tt.previous)
	}
}

func TestRevenue_ExcludesCancelledAndReturned(t *testing.T) {
	orders := []models.Order{
		order("1", models.OrderStatusProcessing, models.PaymentStatusPaid, 1000),
		order("2", models.OrderStatusCancelled, models.PaymentStatusPaid, 5000),
		order("3", models.OrderStatusReturned, models.PaymentStatusPaid, 700),
		order("4", models.OrderStatusDelivered, models.PaymentStatusPaid, 300),
		order("5", models.OrderStatusPending, models.PaymentStatusPending, 900),
	}
	assert.True(t, Revenue(orders).Equal(decimal.NewFromInt(1300)), "got %s", Revenue(orders))
	assert.True(t, Revenue(nil).IsZero())
}

func TestPendingEscrow(t *testing.T) {
	orders := []models.Order{
		order("1", models.OrderStatusProcessing, models.PaymentStatusPaid, 1000),
		order("2", models.OrderStatusDelivered, models.PaymentStatusPaid, 5000),
		order("3", models.OrderStatusPaid, models.PaymentStatusPaid, 200),
		order("4", models.OrderStatusPending, models.PaymentStatusFailed, 900),
	}
	assert.True(t, PendingEscrow(orders).Equal(decimal.NewFromInt(1200)))
}

func TestDeriveClients_RemovesStaffAndDuplicates(t *testing.T) {
	profiles := []string{"u3", "u1", "u2", "u1", "u4", "u5"}
	vendors := []string{"u2", "u9"}
	admins := []string{"u4", "u2"}

	assert.Equal(t, []string{"u1", "u3", "u5"}, DeriveClients(profiles, vendors, admins))
	assert.Empty(t, DeriveClients(nil, vendors, admins))
	assert.Equal(t, []string{"a"}, DeriveClients([]string{"a"}, nil, nil))
}

func TestDeriveTickets(t *testing.T) {
	threshold := decimal.NewFromInt(100000)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	big := order("big", models.OrderStatusCancelled, models.PaymentStatusPaid, 150000)
	big.UpdatedAt = base
	failed := order("failed", models.OrderStatusCancelled, models.PaymentStatusFailed, 100)
	failed.UpdatedAt = base.Add(time.Hour)
	small := order("small", models.OrderStatusCancelled, models.PaymentStatusPending, 100000)
	small.UpdatedAt = base
	open := order("open", models.OrderStatusProcessing, models.PaymentStatusPaid, 999999)

	vendors := []models.Vendor{
		{ID: "v-new", Name: "Mama Nkeng", CreatedAt: base},
		{ID: "v-ok", Name: "Bamenda Crafts", Verified: true, CreatedAt: base},
	}

	tickets := DeriveTickets([]models.Order{small, big, open, failed}, vendors, threshold)
	require.Len(t, tickets, 4)

	var got []string
	for _, tk := range tickets {
		got = append(got, tk.SubjectID+":"+string(tk.Priority))
	}
	assert.Equal(t, []string{"failed:high", "big:high", "v-new:medium", "small:low"}, got)
	assert.Equal(t, TicketVendor, tickets[2].Kind)
	assert.Nil(t, tickets[2].Amount)
	require.NotNil(t, tickets[0].Amount)
}
