package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// MockGateway issues orders locally.  It is used when no gateway keys
// are configured so the whole flow can run in development.
type MockGateway struct {
	keyID string
}

// NewMockGateway returns a MockGateway reporting keyID to clients.
func NewMockGateway(keyID string) *MockGateway {
	if keyID == "" {
		keyID = "rzp_test_mock"
	}
	return &MockGateway{keyID: keyID}
}

func (g *MockGateway) Provider() string { return ProviderMock }

func (g *MockGateway) KeyID() string { return g.keyID }

func (g *MockGateway) CreateOrder(_ context.Context, req OrderRequest) (*Order, error) {
	id := "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	return &Order{ID: id, AmountMinor: req.AmountMinor, Currency: req.Currency, Status: "created"}, nil
}
