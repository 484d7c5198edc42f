package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junaidrashid-git/yar-marketplace/models"
)

func TestNext_TableDriven(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		from    models.OrderStatus
		payment models.PaymentStatus
		role    models.Role
		want    models.OrderStatus
		to      models.OrderStatus
		payTo   models.PaymentStatus
		err     error
	}{
		{"vendor confirms pending", EventConfirmAvailability, models.OrderStatusPending, models.PaymentStatusPending, models.RoleVendor, "", models.OrderStatusProcessing, models.PaymentStatusPending, nil},
		{"vendor confirms paid", EventConfirmAvailability, models.OrderStatusPaid, models.PaymentStatusPaid, models.RoleVendor, "", models.OrderStatusProcessing, models.PaymentStatusPaid, nil},
		{"admin may not confirm availability", EventConfirmAvailability, models.OrderStatusPending, models.PaymentStatusPending, models.RoleAdmin, "", "", "", ErrRoleNotAllowed},
		{"vendor cancels pending_verification", EventMarkUnavailable, models.OrderStatusPendingVerification, models.PaymentStatusPending, models.RoleVendor, "", models.OrderStatusCancelled, models.PaymentStatusPending, nil},
		{"vendor cannot cancel processing", EventMarkUnavailable, models.OrderStatusProcessing, models.PaymentStatusPaid, models.RoleVendor, "", "", "", ErrIllegalFrom},
		{"cancelled is terminal", EventMarkUnavailable, models.OrderStatusCancelled, models.PaymentStatusPending, models.RoleVendor, "", "", "", ErrTerminal},
		{"delivered is terminal", EventConfirmAvailability, models.OrderStatusDelivered, models.PaymentStatusPaid, models.RoleVendor, "", "", "", ErrTerminal},
		{"buyer resubmits after rejection", EventSubmitReference, models.OrderStatusPending, models.PaymentStatusFailed, models.RoleBuyer, "", models.OrderStatusPendingVerification, models.PaymentStatusPending, nil},
		{"buyer cannot resubmit once paid", EventSubmitReference, models.OrderStatusPending, models.PaymentStatusPaid, models.RoleBuyer, "", "", "", ErrPaymentState},
		{"verify moves pending to paid", EventVerifyPayment, models.OrderStatusPending, models.PaymentStatusPending, models.RoleAdmin, "", models.OrderStatusPaid, models.PaymentStatusPaid, nil},
		{"verify keeps delivered", EventVerifyPayment, models.OrderStatusDelivered, models.PaymentStatusPending, models.RoleAdmin, "", models.OrderStatusDelivered, models.PaymentStatusPaid, nil},
		{"verify twice", EventVerifyPayment, models.OrderStatusPaid, models.PaymentStatusPaid, models.RoleAdmin, "", "", "", ErrIllegalFrom},
		{"reject keeps status", EventRejectPayment, models.OrderStatusPendingVerification, models.PaymentStatusPending, models.RoleAdmin, "", models.OrderStatusPendingVerification, models.PaymentStatusFailed, nil},
		{"resolve processing as returned", EventResolveDispute, models.OrderStatusProcessing, models.PaymentStatusPaid, models.RoleAdmin, models.OrderStatusReturned, models.OrderStatusReturned, models.PaymentStatusPaid, nil},
		{"resolve needs an outcome from processing", EventResolveDispute, models.OrderStatusProcessing, models.PaymentStatusPaid, models.RoleAdmin, "", "", "", ErrOutcome},
		{"resolve cannot complete pending", EventResolveDispute, models.OrderStatusPending, models.PaymentStatusPending, models.RoleAdmin, models.OrderStatusCompleted, "", "", ErrOutcome},
		{"system delivers", EventMarkDelivered, models.OrderStatusProcessing, models.PaymentStatusPaid, models.RoleSystem, "", models.OrderStatusDelivered, models.PaymentStatusPaid, nil},
		{"escrow needs payment", EventReleaseEscrow, models.OrderStatusDelivered, models.PaymentStatusPending, models.RoleSystem, "", "", "", ErrPaymentState},
		{"escrow released from completed", EventReleaseEscrow, models.OrderStatusCompleted, models.PaymentStatusPaid, models.RoleSystem, "", models.OrderStatusCompleted, models.PaymentStatusPaid, nil},
		{"fee before payment", EventConfirmDeliveryFee, models.OrderStatusPending, models.PaymentStatusPending, models.RoleVendor, "", models.OrderStatusPending, models.PaymentStatusPending, nil},
		{"fee after payment", EventConfirmDeliveryFee, models.OrderStatusProcessing, models.PaymentStatusPaid, models.RoleAdmin, "", "", "", ErrPaymentState},
		{"unknown event", Event("teleport"), models.OrderStatusPending, models.PaymentStatusPending, models.RoleAdmin, "", "", "", ErrUnknownEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step, err := Orders.Next(tt.event, tt.from, tt.payment, tt.role, tt.want)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, step.To)
			assert.Equal(t, tt.payTo, step.PaymentTo)
		})
	}
}

func TestOrders_NothingLeavesTerminalStates(t *testing.T) {
	for ev, rule := range Orders {
		for from, targets := range rule.Moves {
			if !from.Terminal() {
				continue
			}
			for _, target := range targets {
				assert.Equal(t, from, target, "%s moves terminal %s to %s", ev, from, target)
			}
		}
	}
}

func TestOrders_NothingReentersPending(t *testing.T) {
	for ev, rule := range Orders {
		for from, targets := range rule.Moves {
			for _, target := range targets {
				if target == models.OrderStatusPending {
					assert.Equal(t, models.OrderStatusPending, from, "%s re-enters pending from %s", ev, from)
				}
			}
		}
	}
}

// Every path from pending to completed must pass through processing.
func TestOrders_CompletedOnlyViaProcessing(t *testing.T) {
	reach := map[models.OrderStatus]bool{models.OrderStatusPending: true}
	queue := []models.OrderStatus{models.OrderStatusPending}
	for len(queue) > 0 {
		from := queue[0]
		queue = queue[1:]
		for _, rule := range Orders {
			for _, target := range rule.Moves[from] {
				if target == models.OrderStatusProcessing || reach[target] {
					continue
				}
				reach[target] = true
				queue = append(queue, target)
			}
		}
	}
	assert.False(t, reach[models.OrderStatusCompleted], "completed reachable from pending without processing")
	assert.False(t, reach[models.OrderStatusDelivered], "delivered reachable from pending without processing")
	assert.True(t, reach[models.OrderStatusCancelled])
}

func TestAllowed(t *testing.T) {
	events := Orders.Allowed(models.OrderStatusPending, models.PaymentStatusPending, models.RoleVendor)
	assert.ElementsMatch(t, []Event{EventConfirmAvailability, EventConfirmDeliveryFee, EventMarkUnavailable}, events)

	assert.Empty(t, Orders.Allowed(models.OrderStatusCancelled, models.PaymentStatusPending, models.RoleVendor))
}
