package payment

import (
	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/config"
	"github.com/junaidrashid-git/yar-marketplace/models"
)

// Instructions tell a buyer where to send funds and what to report back.
type Instructions struct {
	Method         models.PaymentMethod `json:"method"`
	AccountName    string               `json:"account_name,omitempty"`
	AccountNumber  string               `json:"account_number,omitempty"`
	WalletAddress  string               `json:"wallet_address,omitempty"`
	PayID          string               `json:"pay_id,omitempty"`
	ReferenceLabel string               `json:"reference_label,omitempty"`
	Note           string               `json:"note"`
}

type Directory map[models.PaymentMethod]Instructions

var referenceLabels = map[models.PaymentMethod]string{
	models.PaymentMethodOrangeMoney: "Transaction ID",
	models.PaymentMethodMTNMomo:     "Transaction ID",
	models.PaymentMethodBinance:     "Transaction hash",
}

func NewDirectory(manual map[string]config.ManualConfig) Directory {
	d := Directory{
		models.PaymentMethodCash: {
			Method: models.PaymentMethodCash,
			Note:   "Pay the courier in cash when your order is delivered.",
		},
	}
	for method, label := range referenceLabels {
		dest := manual[string(method)]
		d[method] = Instructions{
			Method:         method,
			AccountName:    dest.AccountName,
			AccountNumber:  dest.AccountNumber,
			WalletAddress:  dest.WalletAddress,
			PayID:          dest.PayID,
			ReferenceLabel: label,
			Note:           "Send the exact total, then enter the " + label + " to place your order. Payment is verified within 24h.",
		}
	}
	return d
}

// For returns the instructions for a manual or on-delivery method.
// Redirect methods have none.
func (d Directory) For(method models.PaymentMethod) (Instructions, error) {
	in, ok := d[method]
	if !ok {
		return Instructions{}, apperr.NotFound("payment instructions", string(method))
	}
	return in, nil
}
