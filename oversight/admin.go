package oversight

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
)

func admin(id string) reconcile.Actor {
	return reconcile.Actor{ID: id, Role: models.RoleAdmin}
}

func (s *Service) VerifyPayment(ctx context.Context, adminID, orderID string) (*models.Order, error) {
	return s.engine.VerifyPayment(ctx, orderID, admin(adminID))
}

func (s *Service) RejectPayment(ctx context.Context, adminID, orderID, reason string) (*models.Order, error) {
	return s.engine.RejectPayment(ctx, orderID, admin(adminID), reason)
}

func (s *Service) MarkDelivered(ctx context.Context, adminID, orderID string) (*models.Order, error) {
	return s.engine.MarkDelivered(ctx, orderID, admin(adminID))
}

func (s *Service) Complete(ctx context.Context, adminID, orderID string) (*models.Order, error) {
	return s.engine.Complete(ctx, orderID, admin(adminID))
}

// ResolveDispute force-settles an order. Resolving a ticket ends here.
func (s *Service) ResolveDispute(ctx context.Context, adminID, orderID string, res reconcile.Resolution) (*models.Order, error) {
	return s.engine.ResolveDispute(ctx, orderID, admin(adminID), res)
}

func (s *Service) ConfirmDeliveryFee(ctx context.Context, adminID, orderID string, fee decimal.Decimal) (*models.Order, error) {
	return s.engine.ConfirmDeliveryFee(ctx, orderID, admin(adminID), fee)
}

// ReleaseEscrow pays the vendors out before the hold window has passed.
func (s *Service) ReleaseEscrow(ctx context.Context, adminID, orderID string) (*models.Order, error) {
	return s.engine.ReleaseEscrow(ctx, orderID, admin(adminID))
}

func (s *Service) History(ctx context.Context, adminID, orderID string) ([]models.OrderEvent, error) {
	return s.engine.History(ctx, orderID, admin(adminID))
}
