package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Sandbox is an in-process gateway for development and tests. It follows the
// sandbox-nonce convention of real tokenizing gateways: nonces starting with
// "fake-valid" settle, everything else declines with a readable reason.
type Sandbox struct{}

func NewSandbox() *Sandbox {
	return &Sandbox{}
}

func (s *Sandbox) CreateClientToken(_ context.Context) (string, error) {
	return "sandbox-token-" + uuid.NewString(), nil
}

func (s *Sandbox) SubmitPayment(_ context.Context, nonce string, amountCents int64, _ string) (*SaleResult, error) {
	if amountCents <= 0 {
		return &SaleResult{Success: false, DeclineReason: "invalid amount"}, nil
	}
	if strings.HasPrefix(nonce, "fake-valid") {
		return &SaleResult{
			Success:       true,
			TransactionID: fmt.Sprintf("sandbox-%s", uuid.NewString()),
		}, nil
	}
	return &SaleResult{Success: false, DeclineReason: "processor declined"}, nil
}
