// Package reconcile is the order state machine. Every status or payment
// change goes through one table of rules, one transaction, and one
// version-guarded write, so illegal moves are rejected by construction.
package reconcile

import (
	"errors"
	"slices"

	"github.com/junaidrashid-git/yar-marketplace/models"
)

type Event string

const (
	EventCheckout            Event = "checkout"
	EventProcessorPaid       Event = "processor_paid"
	EventSubmitReference     Event = "submit_reference"
	EventConfirmAvailability Event = "confirm_availability"
	EventMarkUnavailable     Event = "mark_unavailable"
	EventMarkDelivered       Event = "mark_delivered"
	EventComplete            Event = "complete"
	EventResolveDispute      Event = "resolve_dispute"
	EventVerifyPayment       Event = "verify_payment"
	EventRejectPayment       Event = "reject_payment"
	EventConfirmDeliveryFee  Event = "confirm_delivery_fee"
	EventReleaseEscrow       Event = "escrow_released"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrRoleNotAllowed = errors.New("role may not trigger this event")
	ErrTerminal       = errors.New("order is in a terminal state")
	ErrIllegalFrom    = errors.New("event is not allowed from the current status")
	ErrPaymentState   = errors.New("event is not allowed for the current payment status")
	ErrOutcome        = errors.New("outcome is not a legal target from the current status")
)

// Rule is one row of the table. Moves maps each legal from-status to its
// legal targets; a single target is taken implicitly, several require the
// caller to pick one. Payment is nil when the event leaves the payment
// axis alone.
type Rule struct {
	Roles   []models.Role
	Moves   map[models.OrderStatus][]models.OrderStatus
	Payment map[models.PaymentStatus]models.PaymentStatus
}

// Step is the outcome of a legal event.
type Step struct {
	From      models.OrderStatus
	To        models.OrderStatus
	PaymentTo models.PaymentStatus
}

func (s Step) StatusChanged() bool { return s.From != s.To }

type Machine map[Event]Rule

var (
	openStatuses = []models.OrderStatus{
		models.OrderStatusPending, models.OrderStatusPendingVerification,
		models.OrderStatusPaid, models.OrderStatusProcessing,
	}
	unsettled = []models.PaymentStatus{
		models.PaymentStatusUnpaid, models.PaymentStatusPending, models.PaymentStatusFailed,
	}
)

func stay(states ...models.OrderStatus) map[models.OrderStatus][]models.OrderStatus {
	m := make(map[models.OrderStatus][]models.OrderStatus, len(states))
	for _, s := range states {
		m[s] = []models.OrderStatus{s}
	}
	return m
}

func into(target models.OrderStatus, from ...models.OrderStatus) map[models.OrderStatus][]models.OrderStatus {
	m := make(map[models.OrderStatus][]models.OrderStatus, len(from))
	for _, s := range from {
		m[s] = []models.OrderStatus{target}
	}
	return m
}

// hold accepts the given payment states and leaves them unchanged.
func hold(states ...models.PaymentStatus) map[models.PaymentStatus]models.PaymentStatus {
	m := make(map[models.PaymentStatus]models.PaymentStatus, len(states))
	for _, s := range states {
		m[s] = s
	}
	return m
}

func settle(target models.PaymentStatus, from ...models.PaymentStatus) map[models.PaymentStatus]models.PaymentStatus {
	m := make(map[models.PaymentStatus]models.PaymentStatus, len(from))
	for _, s := range from {
		m[s] = target
	}
	return m
}

// Orders is the marketplace order lifecycle.
var Orders = Machine{
	EventSubmitReference: {
		Roles:   []models.Role{models.RoleBuyer},
		Moves:   into(models.OrderStatusPendingVerification, models.OrderStatusPending, models.OrderStatusPendingVerification),
		Payment: settle(models.PaymentStatusPending, unsettled...),
	},
	EventConfirmAvailability: {
		Roles: []models.Role{models.RoleVendor},
		Moves: into(models.OrderStatusProcessing, models.OrderStatusPending, models.OrderStatusPendingVerification, models.OrderStatusPaid),
	},
	EventMarkUnavailable: {
		Roles: []models.Role{models.RoleVendor},
		Moves: into(models.OrderStatusCancelled, models.OrderStatusPending, models.OrderStatusPendingVerification),
	},
	EventMarkDelivered: {
		Roles: []models.Role{models.RoleAdmin, models.RoleSystem},
		Moves: into(models.OrderStatusDelivered, models.OrderStatusProcessing),
	},
	EventComplete: {
		Roles: []models.Role{models.RoleAdmin},
		Moves: into(models.OrderStatusCompleted, models.OrderStatusProcessing),
	},
	EventResolveDispute: {
		Roles: []models.Role{models.RoleAdmin},
		Moves: map[models.OrderStatus][]models.OrderStatus{
			models.OrderStatusPending:             {models.OrderStatusCancelled},
			models.OrderStatusPendingVerification: {models.OrderStatusCancelled},
			models.OrderStatusPaid:                {models.OrderStatusCancelled},
			models.OrderStatusProcessing:          {models.OrderStatusCancelled, models.OrderStatusCompleted, models.OrderStatusReturned},
		},
	},
	EventVerifyPayment: {
		Roles: []models.Role{models.RoleAdmin},
		Moves: func() map[models.OrderStatus][]models.OrderStatus {
			m := into(models.OrderStatusPaid, models.OrderStatusPending, models.OrderStatusPendingVerification)
			for k, v := range stay(models.OrderStatusProcessing, models.OrderStatusDelivered, models.OrderStatusCompleted) {
				m[k] = v
			}
			return m
		}(),
		Payment: settle(models.PaymentStatusPaid, models.PaymentStatusPending),
	},
	EventRejectPayment: {
		Roles:   []models.Role{models.RoleAdmin},
		Moves:   stay(models.OrderStatusPending, models.OrderStatusPendingVerification, models.OrderStatusProcessing, models.OrderStatusDelivered),
		Payment: settle(models.PaymentStatusFailed, models.PaymentStatusPending),
	},
	// The fee is fixed before money moves; a paid total is never raised.
	EventConfirmDeliveryFee: {
		Roles:   []models.Role{models.RoleAdmin, models.RoleVendor},
		Moves:   stay(openStatuses...),
		Payment: hold(unsettled...),
	},
	EventReleaseEscrow: {
		Roles:   []models.Role{models.RoleSystem, models.RoleAdmin},
		Moves:   stay(models.OrderStatusDelivered, models.OrderStatusCompleted),
		Payment: settle(models.PaymentStatusPaid, models.PaymentStatusPaid),
	},
}

// Next resolves event against the current state. want is only consulted
// when the rule offers more than one target.
func (m Machine) Next(ev Event, from models.OrderStatus, payment models.PaymentStatus, role models.Role, want models.OrderStatus) (Step, error) {
	rule, ok := m[ev]
	if !ok {
		return Step{}, ErrUnknownEvent
	}
	if !slices.Contains(rule.Roles, role) {
		return Step{}, ErrRoleNotAllowed
	}

	targets, ok := rule.Moves[from]
	if !ok {
		if from.Terminal() {
			return Step{}, ErrTerminal
		}
		return Step{}, ErrIllegalFrom
	}

	step := Step{From: from, To: targets[0], PaymentTo: payment}
	if len(targets) > 1 || want != "" {
		if !slices.Contains(targets, want) {
			return Step{}, ErrOutcome
		}
		step.To = want
	}

	if rule.Payment != nil {
		next, ok := rule.Payment[payment]
		if !ok {
			return Step{}, ErrPaymentState
		}
		step.PaymentTo = next
	}
	return step, nil
}

// Allowed lists the events role may trigger on an order in this state.
func (m Machine) Allowed(from models.OrderStatus, payment models.PaymentStatus, role models.Role) []Event {
	var out []Event
	for ev, rule := range m {
		if len(rule.Moves[from]) > 1 {
			if slices.Contains(rule.Roles, role) {
				out = append(out, ev)
			}
			continue
		}
		if _, err := m.Next(ev, from, payment, role, ""); err == nil {
			out = append(out, ev)
		}
	}
	slices.Sort(out)
	return out
}
