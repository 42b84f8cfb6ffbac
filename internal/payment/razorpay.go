package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultRazorpayURL is the public Razorpay API endpoint.
const DefaultRazorpayURL = "https://api.razorpay.com"

// RazorpayClient creates orders through the Razorpay REST API.
type RazorpayClient struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

// NewRazorpayClient returns a client authenticating with the given key
// pair.  An empty baseURL selects DefaultRazorpayURL.
func NewRazorpayClient(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayClient {
	if baseURL == "" {
		baseURL = DefaultRazorpayURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RazorpayClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: timeout},
	}
}

func (c *RazorpayClient) Provider() string { return ProviderRazorpay }

// KeyID is the public key handed to checkout clients.
func (c *RazorpayClient) KeyID() string { return c.keyID }

type razorpayOrderBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder calls POST /v1/orders.
func (c *RazorpayClient) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(razorpayOrderBody{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("razorpay read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		var e razorpayError
		if json.Unmarshal(raw, &e) == nil && e.Error.Description != "" {
			return nil, fmt.Errorf("razorpay create order: %d %s: %s", resp.StatusCode, e.Error.Code, e.Error.Description)
		}
		return nil, fmt.Errorf("razorpay create order: status %d", resp.StatusCode)
	}
	var o razorpayOrder
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("razorpay decode order: %w", err)
	}
	if o.ID == "" {
		return nil, fmt.Errorf("razorpay create order: empty order id")
	}
	return &Order{ID: o.ID, AmountMinor: o.Amount, Currency: o.Currency, Status: o.Status}, nil
}
