package models

import "time"

// Profile is the account row every signed-in user has, whatever else they are.
type Profile struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Address is the delivery snapshot an order points at. Never edited once
// an order references it; a changed address is a new row.
type Address struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerUserID *string   `gorm:"type:varchar(64);index" json:"owner_user_id,omitempty"`
	FullName    string    `gorm:"not null" json:"full_name"`
	Phone       string    `gorm:"not null" json:"phone"`
	AddressLine string    `gorm:"not null" json:"address_line"`
	City        string    `gorm:"not null" json:"city"`
	Label       string    `json:"label"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
}
