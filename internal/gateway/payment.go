// Package gateway holds the external fallible service boundaries: the
// payment processor and the email provider. The core treats both as black
// boxes with a success/failure contract; every call is bounded by the
// client timeout.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pizzeria/internal/models"
)

// ChargeRequest describes a single payment charge.
type ChargeRequest struct {
	// Amount in minor units. Must be positive.
	Amount int64
	// Currency is an ISO currency code, e.g. "nzd".
	Currency string
	// Description is human-readable, at most 100 characters.
	Description string
	// Source is the payment source reference to charge.
	Source string
	// IdempotencyKey guards against double charges on retries.
	IdempotencyKey string
}

// PaymentGateway charges a payment source. A nil error means the charge
// succeeded and money has moved.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*models.ChargeResult, error)
}

const maxDescriptionLen = 100

// StripeClient is the HTTP implementation of PaymentGateway against the
// Stripe charges API.
type StripeClient struct {
	httpClient *http.Client
	baseURL    string
	secret     string
}

// NewStripeClient creates a payment client. Every charge call is bounded
// by timeout.
func NewStripeClient(secret string, timeout time.Duration) *StripeClient {
	return &StripeClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://api.stripe.com",
		secret:     secret,
	}
}

// stripeCharge mirrors the subset of the charge response the order keeps.
type stripeCharge struct {
	Status             string `json:"status"`
	Paid               bool   `json:"paid"`
	BalanceTransaction string `json:"balance_transaction"`
	Amount             int64  `json:"amount"`
	Description        string `json:"description"`
	Source             struct {
		ID string `json:"id"`
	} `json:"source"`
}

// Charge sends the charge and reports success only for a paid, succeeded
// response. The raw provider body never leaves this package.
func (c *StripeClient) Charge(ctx context.Context, req ChargeRequest) (*models.ChargeResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("payment: amount must be positive, got %d", req.Amount)
	}
	if strings.TrimSpace(req.Currency) == "" || strings.TrimSpace(req.Source) == "" {
		return nil, fmt.Errorf("payment: currency and source are required")
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" || len(desc) > maxDescriptionLen {
		return nil, fmt.Errorf("payment: description must be 1..%d characters", maxDescriptionLen)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", strings.TrimSpace(req.Currency))
	form.Set("description", desc)
	form.Set("source", strings.TrimSpace(req.Source))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payment: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}
	httpReq.SetBasicAuth(c.secret, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment: charge request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("payment: read response: %w", err)
	}

	var charge stripeCharge
	if err := json.Unmarshal(body, &charge); err != nil {
		return nil, fmt.Errorf("payment: decode response (http %d): %w", resp.StatusCode, err)
	}
	if charge.Status != "succeeded" || !charge.Paid {
		return nil, fmt.Errorf("payment: charge not accepted (http %d, status %q)", resp.StatusCode, charge.Status)
	}

	return &models.ChargeResult{
		Status:             charge.Status,
		Paid:               charge.Paid,
		SourceID:           charge.Source.ID,
		BalanceTransaction: charge.BalanceTransaction,
		Amount:             charge.Amount,
		Description:        charge.Description,
	}, nil
}
