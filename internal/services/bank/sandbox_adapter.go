package bank

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SandboxGateway mints orders locally. Used in development together with the
// sign-callback command to drive the verification flow without a real gateway.
type SandboxGateway struct {
	keyID string
	now   func() time.Time
}

func NewSandboxGateway(keyID string) *SandboxGateway {
	if keyID == "" {
		keyID = "sandbox_key"
	}
	return &SandboxGateway{keyID: keyID, now: time.Now}
}

func (s *SandboxGateway) GetProvider() Provider {
	return ProviderSandbox
}

func (s *SandboxGateway) PublicKey() string {
	return s.keyID
}

func (s *SandboxGateway) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("sandbox: amount must be positive, got %d", req.Amount)
	}

	return &Order{
		ID:        "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount:    req.Amount,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    "created",
		CreatedAt: s.now().Unix(),
	}, nil
}

func (s *SandboxGateway) Close(ctx context.Context) error {
	return nil
}
