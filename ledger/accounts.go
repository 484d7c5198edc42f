package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/models"
)

func (s *Store) CreateVendor(ctx context.Context, v *models.Vendor) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("ledger: create vendor: %w", err)
	}
	return nil
}

func (s *Store) GetVendor(ctx context.Context, id string) (*models.Vendor, error) {
	var v models.Vendor
	if err := s.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("vendor", id)
		}
		return nil, fmt.Errorf("ledger: get vendor %s: %w", id, err)
	}
	return &v, nil
}

// VendorByUser resolves the vendor a signed-in user operates.
func (s *Store) VendorByUser(ctx context.Context, userID string) (*models.Vendor, error) {
	var v models.Vendor
	if err := s.db.WithContext(ctx).First(&v, "user_id = ?", userID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("vendor for user", userID)
		}
		return nil, fmt.Errorf("ledger: vendor by user %s: %w", userID, err)
	}
	return &v, nil
}

// Vendors lists vendors, optionally filtered by verification state.
func (s *Store) Vendors(ctx context.Context, verified *bool) ([]models.Vendor, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if verified != nil {
		q = q.Where("verified = ?", *verified)
	}
	var vendors []models.Vendor
	if err := q.Find(&vendors).Error; err != nil {
		return nil, fmt.Errorf("ledger: list vendors: %w", err)
	}
	return vendors, nil
}

func (s *Store) SetVendorVerified(ctx context.Context, id string, verified bool) (*models.Vendor, error) {
	res := s.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", id).
		Updates(map[string]any{"verified": verified, "updated_at": s.Now()})
	if res.Error != nil {
		return nil, fmt.Errorf("ledger: verify vendor %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("vendor", id)
	}
	return s.GetVendor(ctx, id)
}

func (s *Store) Penalties(ctx context.Context, vendorID string) ([]models.VendorPenalty, error) {
	var out []models.VendorPenalty
	if err := s.db.WithContext(ctx).Where("vendor_id = ?", vendorID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("ledger: penalties of %s: %w", vendorID, err)
	}
	return out, nil
}

func (s *Store) CreateProfile(ctx context.Context, p *models.Profile) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("ledger: create profile: %w", err)
	}
	return nil
}

func (s *Store) GrantRole(ctx context.Context, userID string, role models.Role) error {
	g := models.RoleGrant{UserID: userID, Role: role, CreatedAt: s.Now()}
	if err := s.db.WithContext(ctx).Create(&g).Error; err != nil {
		return fmt.Errorf("ledger: grant %s to %s: %w", role, userID, err)
	}
	return nil
}

// HasRole reports whether userID holds an explicit grant.
func (s *Store) HasRole(ctx context.Context, userID string, role models.Role) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.RoleGrant{}).
		Where("user_id = ? AND role = ?", userID, role).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("ledger: role lookup %s: %w", userID, err)
	}
	return n > 0, nil
}
