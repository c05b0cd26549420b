// Package gateway talks to the third-party card processor. The flow mirrors
// a tokenizing gateway: the server requests a client authorization token, the
// client exchanges card details for a single-use payment-method nonce, and
// the server submits the nonce with the charge amount for settlement.
package gateway

import "context"

// SaleResult is the gateway's answer to a settlement request. A decline is a
// normal result, not an error; network and timeout failures surface as
// domain.ErrGatewayUnavailable from the implementation.
type SaleResult struct {
	Success       bool
	TransactionID string
	DeclineReason string
}

type Gateway interface {
	// CreateClientToken returns a client authorization token for the
	// browser-side tokenization step. No money moves.
	CreateClientToken(ctx context.Context) (string, error)
	// SubmitPayment charges amountCents against the payment-method nonce.
	SubmitPayment(ctx context.Context, nonce string, amountCents int64, currency string) (*SaleResult, error)
}
