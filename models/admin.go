package models

import "time"

type Role string

const (
	RoleBuyer     Role = "buyer"
	RoleVendor    Role = "vendor"
	RoleAdmin     Role = "admin"
	RoleSystem    Role = "system"
	RoleProcessor Role = "processor"
)

// RoleGrant gives a user an elevated role. Vendors are not granted here;
// a vendor is whoever owns a Vendor row.
type RoleGrant struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"type:varchar(64);uniqueIndex:idx_role_grant"`
	Role      Role      `gorm:"type:varchar(16);uniqueIndex:idx_role_grant"`
	CreatedAt time.Time
}
