package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Version goes out in the X-Trackdesk-Version header on every flush.
const Version = "1.0.0"

// Sender delivers one batch to the collector. Any non-2xx response is a
// delivery failure.
type Sender interface {
	Send(ctx context.Context, batch Batch) error
}

// HTTPSender posts batches to {endpoint}/tracking/events.
type HTTPSender struct {
	endpoint string
	http     *http.Client
}

func NewHTTPSender(endpoint string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		endpoint: endpoint,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (s *HTTPSender) Send(ctx context.Context, batch Batch) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/tracking/events", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build flush request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Trackdesk-Version", Version)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("flush request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}

	return nil
}
