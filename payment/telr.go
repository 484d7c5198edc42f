package payment

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/yar-marketplace/apperr"
	"github.com/junaidrashid-git/yar-marketplace/config"
)

const telrService = "telr"

// TelrPaymentResponse represents Telr response
type TelrPaymentResponse struct {
	Order struct {
		Ref string `json:"ref"`
		URL string `json:"url"`
	} `json:"order"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Telr creates hosted payment pages on the Telr gateway.
type Telr struct {
	cfg    config.TelrConfig
	client *http.Client
}

func NewTelr(cfg config.TelrConfig, client *http.Client) *Telr {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Telr{cfg: cfg, client: client}
}

func (t *Telr) configured() error {
	if t.cfg.StoreID == 0 || t.cfg.AuthKey == "" || t.cfg.APIURL == "" {
		return errors.New("telr configuration missing")
	}
	return nil
}

func (t *Telr) payload(req RedirectRequest) map[string]interface{} {
	testMode := 0
	if t.cfg.Sandbox() {
		testMode = 1 // use test mode even on live endpoint
	}
	return map[string]interface{}{
		"method":  "create",
		"store":   t.cfg.StoreID,
		"authkey": t.cfg.AuthKey,
		"order": map[string]interface{}{
			"cartid":      req.SessionID,
			"test":        testMode,
			"amount":      req.Amount.StringFixed(2),
			"currency":    req.Currency,
			"description": req.Description,
		},
		"customer": map[string]interface{}{
			"name":  req.Contact.Name,
			"email": req.Contact.Email,
			"phone": req.Contact.Phone,
			"address": map[string]string{
				"line1": req.Contact.AddressLine,
				"city":  req.Contact.City,
			},
		},
		"return": map[string]string{
			"authorised": t.cfg.SuccessURL,
			"declined":   t.cfg.FailureURL,
			"cancelled":  t.cfg.CancelURL,
		},
	}
}

// CreateRedirect sends the order to Telr and returns the payment URL and
// Telr's order reference. Every failure is an ExternalServiceError.
func (t *Telr) CreateRedirect(ctx context.Context, req RedirectRequest) (Redirect, error) {
	if err := t.configured(); err != nil {
		return Redirect{}, apperr.External(telrService, err)
	}

	body, err := json.Marshal(t.payload(req))
	if err != nil {
		return Redirect{}, apperr.External(telrService, fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return Redirect{}, apperr.External(telrService, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Redirect{}, apperr.External(telrService, fmt.Errorf("failed to reach Telr: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Redirect{}, apperr.External(telrService, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return Redirect{}, apperr.External(telrService, fmt.Errorf("telr API error (%d): %s", resp.StatusCode, string(raw)))
	}

	var telrResp TelrPaymentResponse
	if err := json.Unmarshal(raw, &telrResp); err != nil {
		return Redirect{}, apperr.External(telrService, fmt.Errorf("failed to parse Telr response: %w", err))
	}
	if telrResp.Error != nil {
		return Redirect{}, apperr.External(telrService, fmt.Errorf("telr error %s: %s", telrResp.Error.Code, telrResp.Error.Message))
	}
	if telrResp.Order.URL == "" {
		return Redirect{}, apperr.External(telrService, errors.New("telr returned empty payment URL"))
	}

	slog.InfoContext(ctx, "telr payment page created", "session_id", req.SessionID, "telr_ref", telrResp.Order.Ref)
	return Redirect{URL: telrResp.Order.URL, Ref: telrResp.Order.Ref}, nil
}

// telrSignedFields are hashed, in order, to produce tran_check.
var telrSignedFields = []string{
	"tran_store", "tran_type", "tran_class", "tran_test", "tran_ref",
	"tran_prevref", "tran_firstref", "tran_order", "tran_currency",
	"tran_amount", "tran_cartid", "tran_desc", "tran_status",
	"tran_authcode", "tran_authmessage",
}

// TelrSignature is the SHA1 tran_check Telr sends with a transaction advice.
func TelrSignature(secret string, form url.Values) string {
	parts := []string{secret}
	for _, f := range telrSignedFields {
		parts = append(parts, strings.TrimSpace(form.Get(f)))
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

// TelrAdvice is the part of a Telr transaction advice the service uses.
type TelrAdvice struct {
	CartID string
	Ref    string
	Status string
	Amount *decimal.Decimal
}

// Approved reports tran_status "A".
func (a TelrAdvice) Approved() bool { return a.Status == "A" }

func ParseTelrAdvice(form url.Values) (TelrAdvice, error) {
	a := TelrAdvice{
		CartID: strings.TrimSpace(form.Get("tran_cartid")),
		Ref:    strings.TrimSpace(form.Get("tran_ref")),
		Status: strings.TrimSpace(form.Get("tran_status")),
	}
	if a.CartID == "" {
		return a, apperr.Validation("tran_cartid", "missing tran_cartid")
	}
	if raw := strings.TrimSpace(form.Get("tran_amount")); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return a, apperr.Validation("tran_amount", "not a decimal amount")
		}
		a.Amount = &amount
	}
	return a, nil
}
