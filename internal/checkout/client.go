package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/devdazzlee/southen-sweet-sub000/internal/domain"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrSubmissionFailed = errors.New("order submission failed")

// Client submits the normalized order payload to the backend order-creation
// endpoint (POST {base}/orders). No automatic retry: a failure is surfaced
// to the caller and cart state is left untouched.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*OrderRef]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*OrderRef](gobreaker.Settings{Name: "order-submit"}),
	}
}

// Submit builds and sends the order-creation request. Each submission gets a
// fresh idempotency key so the backend can collapse accidental duplicates.
func (c *Client) Submit(ctx context.Context, sessionID string, snapshot *Snapshot, shipping domain.ShippingOption, discount *domain.Discount) (*OrderRef, error) {
	req := OrderRequest{
		SessionID:      sessionID,
		IdempotencyKey: uuid.New().String(),
		Snapshot:       *snapshot,
		ShippingOption: shipping,
	}
	if discount != nil {
		req.DiscountCode = discount.Code
	}

	return c.breaker.Execute(func() (*OrderRef, error) {
		return c.submit(ctx, req)
	})
}

func (c *Client) submit(ctx context.Context, order OrderRequest) (*OrderRef, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", order.IdempotencyKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrSubmissionFailed, resp.StatusCode)
	}

	var ref OrderRef
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	return &ref, nil
}
