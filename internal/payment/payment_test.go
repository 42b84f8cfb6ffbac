package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifierCheckout(t *testing.T) {
	v := NewVerifier("key_secret", "hook_secret")
	sig := CheckoutSignature("key_secret", "order_1", "pay_1")

	assert.True(t, v.VerifyCheckout("order_1", "pay_1", sig))
	assert.False(t, v.VerifyCheckout("order_1", "pay_2", sig))
	assert.False(t, v.VerifyCheckout("order_1", "pay_1", ""))
	assert.False(t, NewVerifier("", "").VerifyCheckout("order_1", "pay_1", sig))
}

func TestVerifierWebhook(t *testing.T) {
	v := NewVerifier("key_secret", "hook_secret")
	body := []byte(`{"event":"payment.captured"}`)
	sig := WebhookSignature("hook_secret", body)

	assert.True(t, v.VerifyWebhook(body, sig))
	assert.False(t, v.VerifyWebhook([]byte(`{"event":"payment.failed"}`), sig))
	assert.False(t, v.VerifyWebhook(body, WebhookSignature("other", body)))
}

func TestRazorpayCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "rzp_secret", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(50000), body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "17", body["receipt"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":50000,"currency":"INR","status":"created"}`))
	}))
	defer srv.Close()

	c := NewRazorpayClient(srv.URL, "rzp_key", "rzp_secret", time.Second)
	o, err := c.CreateOrder(context.Background(), OrderRequest{AmountMinor: 50000, Currency: "INR", Receipt: "17", Notes: map[string]string{"bookingId": "17"}})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", o.ID)
	assert.Equal(t, int64(50000), o.AmountMinor)
}

func TestRazorpayCreateOrderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	c := NewRazorpayClient(srv.URL, "k", "s", time.Second)
	_, err := c.CreateOrder(context.Background(), OrderRequest{AmountMinor: 1, Currency: "INR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestMockGateway(t *testing.T) {
	g := NewMockGateway("")
	o, err := g.CreateOrder(context.Background(), OrderRequest{AmountMinor: 100, Currency: "INR"})
	require.NoError(t, err)
	assert.Regexp(t, `^order_[0-9a-f]{14}$`, o.ID)
	assert.Equal(t, ProviderMock, g.Provider())
}
