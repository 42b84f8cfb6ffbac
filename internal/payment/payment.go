// Package payment talks to the payment gateway: it creates orders and
// verifies the signatures the gateway attaches to checkout callbacks and
// webhooks.
package payment

// Order providers.
const (
	ProviderRazorpay = "razorpay"
	ProviderMock     = "mock"
)

// OrderRequest asks the gateway for a new order.  Amounts are in minor
// currency units.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the gateway's answer to an OrderRequest.
type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
}
