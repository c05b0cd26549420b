package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
)

// HTTPGateway calls a remote card processor over HTTP. Requests run under
// the configured timeout and behind a circuit breaker; timeouts, transport
// errors and an open breaker all surface as domain.ErrGatewayUnavailable so
// callers can distinguish them from a processor decline.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *log.Logger
}

func NewHTTP(baseURL string, timeout time.Duration, logger *log.Logger) *HTTPGateway {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	settings := gobreaker.Settings{
		Name:    "card-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("gateway: breaker %s %s -> %s", name, from, to)
		},
	}
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
		logger:  logger,
	}
}

func (g *HTTPGateway) CreateClientToken(ctx context.Context) (string, error) {
	resp, err := g.post(ctx, "/client_token", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		ClientToken string `json:"clientToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode client token: %w", err)
	}
	return out.ClientToken, nil
}

func (g *HTTPGateway) SubmitPayment(ctx context.Context, nonce string, amountCents int64, currency string) (*SaleResult, error) {
	payload := map[string]interface{}{
		"paymentMethodNonce":  nonce,
		"amountCents":         amountCents,
		"currency":            currency,
		"submitForSettlement": true,
	}
	resp, err := g.post(ctx, "/transactions", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Success       bool   `json:"success"`
		TransactionID string `json:"transactionId"`
		Reason        string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode sale result: %w", err)
	}
	return &SaleResult{
		Success:       out.Success,
		TransactionID: out.TransactionID,
		DeclineReason: out.Reason,
	}, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	resp, err := g.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, fmt.Errorf("gateway status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		g.logger.Printf("gateway: %s failed: %v", path, err)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", domain.ErrGatewayUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	return resp, nil
}
