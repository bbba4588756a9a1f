package gateway

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reysilvaa/PBL-SportCentre-sub000/config"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/domain"
)

// Client is the boundary to the external payment gateway. The engine
// consumes it; it never implements gateway business logic.
type Client interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
}

type SubmitRequest struct {
	OrderRef      string
	Amount        int64
	CustomerName  string
	CustomerEmail string
	ItemName      string
	ExpiryMinutes int
}

type SubmitResult struct {
	ExternalRef string
	RedirectURL string
	ExpiresAt   time.Time
}

// Notification is the gateway's asynchronous callback payload. Fields use
// the gateway's own vocabulary; Decode maps them to engine events.
type Notification struct {
	OrderRef          string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	SignatureKey      string `json:"signature_key"`
	ExpiryTime        string `json:"expiry_time,omitempty"`
}

// statusEvents maps the gateway's transaction_status vocabulary to state
// machine events. Anything unmapped decodes to GatewayPending so an
// unknown code can never confirm a payment.
var statusEvents = map[string]domain.PaymentEvent{
	"capture":    domain.EventGatewayConfirmed,
	"settlement": domain.EventGatewayConfirmed,
	"pending":    domain.EventGatewayPending,
	"deny":       domain.EventGatewayDenied,
	"cancel":     domain.EventGatewayDenied,
	"expire":     domain.EventGatewayExpired,
}

func (n Notification) Event() domain.PaymentEvent {
	if ev, ok := statusEvents[n.TransactionStatus]; ok {
		return ev
	}
	return domain.EventGatewayPending
}

// methodTags maps the gateway payment_type codes to internal method tags,
// with an explicit unknown fallback.
var methodTags = map[string]domain.PaymentMethod{
	"bank_transfer": domain.MethodBankTransfer,
	"echannel":      domain.MethodBankTransfer,
	"gopay":         domain.MethodEWallet,
	"shopeepay":     domain.MethodEWallet,
	"qris":          domain.MethodQRIS,
	"credit_card":   domain.MethodCreditCard,
	"cstore":        domain.MethodCash,
}

func MethodTag(paymentType string) domain.PaymentMethod {
	if m, ok := methodTags[paymentType]; ok {
		return m
	}
	return domain.MethodUnknown
}

// Signature returns the SHA-512 digest the gateway computes over
// order_id + status_code + gross_amount + serverKey.
func Signature(orderRef, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderRef + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks a notification's signature_key. trustUnsigned
// bypasses the check for sandbox traffic signed with a different key.
func VerifySignature(n Notification, serverKey string, trustUnsigned bool) bool {
	if trustUnsigned {
		return true
	}
	expected := Signature(n.OrderRef, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) == 1
}

// HTTPClient talks to the gateway's snap-style JSON API with server-key
// basic auth and a bounded timeout.
type HTTPClient struct {
	baseURL   string
	serverKey string
	client    *http.Client
}

func NewHTTPClient(cfg config.GatewayConfig) *HTTPClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL:   cfg.BaseURL,
		serverKey: cfg.ServerKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type snapRequest struct {
	TransactionDetails struct {
		OrderID     string `json:"order_id"`
		GrossAmount int64  `json:"gross_amount"`
	} `json:"transaction_details"`
	CustomerDetails struct {
		FirstName string `json:"first_name"`
		Email     string `json:"email"`
	} `json:"customer_details"`
	ItemDetails []struct {
		Name     string `json:"name"`
		Price    int64  `json:"price"`
		Quantity int    `json:"quantity"`
	} `json:"item_details"`
	Expiry struct {
		Unit     string `json:"unit"`
		Duration int    `json:"duration"`
	} `json:"expiry"`
}

type snapResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

func (c *HTTPClient) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	var body snapRequest
	body.TransactionDetails.OrderID = req.OrderRef
	body.TransactionDetails.GrossAmount = req.Amount
	body.CustomerDetails.FirstName = req.CustomerName
	body.CustomerDetails.Email = req.CustomerEmail
	body.ItemDetails = append(body.ItemDetails, struct {
		Name     string `json:"name"`
		Price    int64  `json:"price"`
		Quantity int    `json:"quantity"`
	}{Name: req.ItemName, Price: req.Amount, Quantity: 1})
	body.Expiry.Unit = "minute"
	body.Expiry.Duration = req.ExpiryMinutes

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/snap/v1/transactions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.serverKey, "")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrGatewayUnavailable, res.StatusCode, raw)
	}

	var snap snapResponse
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", domain.ErrGatewayUnavailable, err)
	}

	return &SubmitResult{
		ExternalRef: snap.Token,
		RedirectURL: snap.RedirectURL,
		ExpiresAt:   time.Now().Add(time.Duration(req.ExpiryMinutes) * time.Minute),
	}, nil
}

var _ Client = (*HTTPClient)(nil)
