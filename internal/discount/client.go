package discount

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/devdazzlee/southen-sweet-sub000/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	// ErrInvalidCode carries the backend's rejection of a code. It does not
	// count against the circuit breaker.
	ErrInvalidCode = errors.New("discount code rejected")

	ErrValidatorUnavailable = errors.New("discount validator unavailable")
)

// Validator validates a code against the current subtotal.
type Validator interface {
	Validate(ctx context.Context, code string, orderAmount float64) (*domain.Discount, error)
}

// Client calls the backend discount validation endpoint
// (POST {base}/discounts/validate).
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.Discount]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	settings := gobreaker.Settings{
		Name: "discount-validate",
		// A rejected code is a valid answer, not a collaborator failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrInvalidCode)
		},
	}

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*domain.Discount](settings),
	}
}

type validateRequest struct {
	Code        string  `json:"code"`
	OrderAmount float64 `json:"orderAmount"`
}

type validateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    struct {
		Discount domain.Discount `json:"discount"`
	} `json:"data"`
}

func (c *Client) Validate(ctx context.Context, code string, orderAmount float64) (*domain.Discount, error) {
	result, err := c.breaker.Execute(func() (*domain.Discount, error) {
		return c.validate(ctx, code, orderAmount)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrValidatorUnavailable, err)
		}
		return nil, err
	}
	return result, nil
}

func (c *Client) validate(ctx context.Context, code string, orderAmount float64) (*domain.Discount, error) {
	body, err := json.Marshal(validateRequest{Code: code, OrderAmount: orderAmount})
	if err != nil {
		return nil, fmt.Errorf("marshal validate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/discounts/validate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build validate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validate request failed: %w", err)
	}
	defer resp.Body.Close()

	// 5xx bodies are not guaranteed to be JSON; classify before decoding
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("validator returned status %d", resp.StatusCode)
	}

	var parsed validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode validate response: %w", err)
	}

	if !parsed.Success || resp.StatusCode >= 400 {
		msg := parsed.Message
		if msg == "" {
			msg = "invalid discount code"
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidCode, msg)
	}

	d := parsed.Data.Discount
	return &d, nil
}
