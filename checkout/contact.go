package checkout

import (
	"strings"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
)

// Contact is the buyer's delivery details. Email is optional.
type Contact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Email   string `json:"email"`
	Label   string `json:"label"`
}

func (c Contact) normalized() Contact {
	return Contact{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
		City:    strings.TrimSpace(c.City),
		Email:   strings.TrimSpace(c.Email),
		Label:   strings.TrimSpace(c.Label),
	}
}

// Validate checks name, phone, address and city in that order and stops
// at the first blank one, so the buyer sees a single specific message.
func Validate(c Contact) error {
	c = c.normalized()
	switch {
	case c.Name == "":
		return apperr.Validation("name", "please enter your full name")
	case c.Phone == "":
		return apperr.Validation("phone", "please enter a phone number")
	case c.Address == "":
		return apperr.Validation("address", "please enter a delivery address")
	case c.City == "":
		return apperr.Validation("city", "please enter your city")
	}
	return nil
}
